package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"microrental/internal/config"
	"microrental/internal/handlers"
	"microrental/internal/repositories"
	"microrental/internal/services"
	"microrental/utils"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	db         *sql.DB
	signingKey string

	userRepo    *repositories.UserRepository
	itemRepo    *repositories.ItemRepository
	requestRepo *repositories.RentalRequestRepository
	chatRepo    *repositories.ChatRepository
	messageRepo *repositories.MessageRepository
	tokenRepo   *repositories.DeviceTokenRepository

	rentalService *services.RentalRequestService

	userHandler         *handlers.UserHandler
	itemHandler         *handlers.ItemHandler
	requestHandler      *handlers.RentalRequestHandler
	chatHandler         *handlers.ChatHandler
	messageHandler      *handlers.MessageHandler
	notificationHandler *handlers.NotificationHandler
	dashboardHandler    *handlers.DashboardHandler

	wsManager *WebSocketManager
}

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	itemRepo := repositories.ItemRepository{DB: db}
	requestRepo := repositories.RentalRequestRepository{DB: db}
	chatRepo := repositories.ChatRepository{DB: db}
	messageRepo := repositories.MessageRepository{DB: db}
	tokenRepo := repositories.DeviceTokenRepository{DB: db}

	tokenManager, err := utils.NewManager(cfg.JWT.SigningKey)
	if err != nil {
		errorLog.Fatal(err)
	}

	storage, err := utils.NewStorage(utils.StorageConfig{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		errorLog.Printf("storage disabled: %v", err)
	}

	// Services
	userService := &services.UserService{
		UserRepo:     &userRepo,
		TokenManager: tokenManager,
		SigningKey:   cfg.JWT.SigningKey,
	}
	itemService := &services.ItemService{
		ItemRepo:    &itemRepo,
		RequestRepo: &requestRepo,
		Redis:       rdb,
	}
	chatService := &services.ChatService{ChatRepo: &chatRepo}
	messageService := &services.MessageService{MessageRepo: &messageRepo}
	notificationService := &services.NotificationService{
		Client:    newMessagingClient(cfg.Firebase.CredentialsFile, errorLog),
		TokenRepo: &tokenRepo,
		InfoLog:   infoLog,
		ErrorLog:  errorLog,
	}
	rentalService := &services.RentalRequestService{
		Ledger:   &requestRepo,
		Catalog:  &itemRepo,
		Notifier: notificationService,
		Chats:    chatService,
		Messages: messageService,
	}
	dashboardService := &services.DashboardService{
		ItemRepo:    &itemRepo,
		RequestRepo: &requestRepo,
		MessageRepo: &messageRepo,
	}

	return &application{
		errorLog:   errorLog,
		infoLog:    infoLog,
		db:         db,
		signingKey: cfg.JWT.SigningKey,

		userRepo:    &userRepo,
		itemRepo:    &itemRepo,
		requestRepo: &requestRepo,
		chatRepo:    &chatRepo,
		messageRepo: &messageRepo,
		tokenRepo:   &tokenRepo,

		rentalService: rentalService,

		userHandler:         &handlers.UserHandler{Service: userService},
		itemHandler:         &handlers.ItemHandler{Service: itemService, Storage: storage},
		requestHandler:      &handlers.RentalRequestHandler{Service: rentalService},
		chatHandler:         &handlers.ChatHandler{Service: chatService},
		messageHandler:      &handlers.MessageHandler{Service: messageService},
		notificationHandler: &handlers.NotificationHandler{Service: notificationService},
		dashboardHandler:    &handlers.DashboardHandler{Service: dashboardService},
	}
}

// newMessagingClient returns nil when the credentials file is absent; the
// notification service logs instead of pushing in that case.
func newMessagingClient(credentialsFile string, errorLog *log.Logger) *messaging.Client {
	if credentialsFile == "" {
		return nil
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		errorLog.Printf("push disabled: %v", err)
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		errorLog.Printf("push disabled: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		errorLog.Printf("push disabled: %v", err)
		return nil
	}
	return client
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
