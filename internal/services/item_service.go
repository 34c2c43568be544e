package services

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"microrental/internal/models"
	"microrental/internal/repositories"
)

var (
	ErrEmptyTitle       = errors.New("item title must not be empty")
	ErrUnknownCategory  = errors.New("unknown item category")
	ErrNonPositivePrice = errors.New("price per day must be positive")
	ErrTooManyImages    = errors.New("an item can have at most 5 images")
)

const (
	itemCacheTTL        = time.Minute
	itemCacheVersionKey = "items:version"
)

type ItemService struct {
	ItemRepo    *repositories.ItemRepository
	RequestRepo *repositories.RentalRequestRepository
	Redis       *redis.Client
}

func validateItem(item models.Item) error {
	if strings.TrimSpace(item.Title) == "" {
		return ErrEmptyTitle
	}
	if !models.IsKnownCategory(item.Category) {
		return ErrUnknownCategory
	}
	if item.PricePerDay <= 0 {
		return ErrNonPositivePrice
	}
	if len(item.Images) > models.MaxItemImages {
		return ErrTooManyImages
	}
	return nil
}

func (s *ItemService) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	if err := validateItem(item); err != nil {
		return models.Item{}, err
	}
	item.IsAvailable = true

	created, err := s.ItemRepo.CreateItem(ctx, item)
	if err != nil {
		return models.Item{}, err
	}
	s.bumpCacheVersion(ctx)
	return created, nil
}

func (s *ItemService) GetItemByID(ctx context.Context, id int) (models.Item, error) {
	item, err := s.ItemRepo.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return models.Item{}, models.ErrItemNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) GetItemsByUserID(ctx context.Context, userID int) ([]models.Item, error) {
	return s.ItemRepo.GetItemsByUserID(ctx, userID)
}

// GetFilteredItems serves the search screen. Results are cached briefly in
// Redis under a key derived from the filter and a version counter that every
// write bumps, so stale pages age out without explicit invalidation.
func (s *ItemService) GetFilteredItems(ctx context.Context, filter models.ItemFilterRequest) (models.ItemListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	cacheKey := s.cacheKey(ctx, filter)
	if s.Redis != nil && cacheKey != "" {
		if cached, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp models.ItemListResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return resp, nil
			}
		}
	}

	items, minPrice, maxPrice, err := s.ItemRepo.GetFilteredItems(ctx, filter)
	if err != nil {
		return models.ItemListResponse{}, err
	}
	resp := models.ItemListResponse{Items: items, MinPrice: minPrice, MaxPrice: maxPrice}

	if s.Redis != nil && cacheKey != "" {
		if payload, err := json.Marshal(resp); err == nil {
			s.Redis.Set(ctx, cacheKey, payload, itemCacheTTL)
		}
	}
	return resp, nil
}

func (s *ItemService) UpdateItem(ctx context.Context, actingUserID int, item models.Item) (models.Item, error) {
	existing, err := s.GetItemByID(ctx, item.ID)
	if err != nil {
		return models.Item{}, err
	}
	if existing.UserID != actingUserID {
		return models.Item{}, models.ErrForbidden
	}
	if err := validateItem(item); err != nil {
		return models.Item{}, err
	}

	updated, err := s.ItemRepo.UpdateItem(ctx, item)
	if err != nil {
		return models.Item{}, err
	}
	s.bumpCacheVersion(ctx)
	return updated, nil
}

func (s *ItemService) SetAvailability(ctx context.Context, actingUserID, itemID int, available bool) (models.Item, error) {
	existing, err := s.GetItemByID(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if existing.UserID != actingUserID {
		return models.Item{}, models.ErrForbidden
	}

	if err := s.ItemRepo.SetAvailability(ctx, itemID, available); err != nil {
		return models.Item{}, err
	}
	s.bumpCacheVersion(ctx)
	existing.IsAvailable = available
	return existing, nil
}

// DeleteItem refuses to remove a listing that still has pending or accepted
// requests; the ledger is append-only and must keep pointing at the item.
func (s *ItemService) DeleteItem(ctx context.Context, actingUserID, itemID int) error {
	existing, err := s.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if existing.UserID != actingUserID {
		return models.ErrForbidden
	}

	open, err := s.RequestRepo.CountOpenForItem(ctx, itemID)
	if err != nil {
		return err
	}
	if open > 0 {
		return models.ErrOpenRequests
	}

	if err := s.ItemRepo.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.bumpCacheVersion(ctx)
	return nil
}

func (s *ItemService) AddImage(ctx context.Context, actingUserID, itemID int, url string) error {
	existing, err := s.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if existing.UserID != actingUserID {
		return models.ErrForbidden
	}
	if len(existing.Images) >= models.MaxItemImages {
		return ErrTooManyImages
	}

	if err := s.ItemRepo.AppendImage(ctx, itemID, url); err != nil {
		return err
	}
	s.bumpCacheVersion(ctx)
	return nil
}

func (s *ItemService) cacheKey(ctx context.Context, filter models.ItemFilterRequest) string {
	if s.Redis == nil {
		return ""
	}
	version, err := s.Redis.Get(ctx, itemCacheVersionKey).Result()
	if err != nil {
		version = "0"
	}
	payload, err := json.Marshal(filter)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("items:filter:%s:%x", version, sha1.Sum(payload))
}

func (s *ItemService) bumpCacheVersion(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	s.Redis.Incr(ctx, itemCacheVersionKey)
}
