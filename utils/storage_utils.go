package utils

import (
	"bytes"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Storage uploads item images to an S3-compatible object store.
type Storage struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

type StorageConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(cfg.Region),
		Endpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey, cfg.SecretKey, "",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return &Storage{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

// UploadFile puts the file under folder/fileName and returns its public URL.
func (s *Storage) UploadFile(file []byte, fileName, folder, contentType string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", folder, fileName)

	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(filePath),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %v", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, filePath), nil
}
