package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/salman854raza/test-sanity-e-commerce/internal/cache"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service owns cart aggregates: it loads the aggregate, applies the
// mutation through the domain methods, and saves the whole cart back.
// Every mutation therefore leaves the aggregate invariants intact, and
// a mutation against an absent line is a plain no-op, never an error.
type Service struct {
	repo  CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.load(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.LineItem) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.Add(item)
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID, variant string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.Remove(productID, variant)
	})
}

func (s *Service) IncrementQuantity(ctx context.Context, userID, productID, variant string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.IncrementQuantity(productID, variant)
	})
}

func (s *Service) DecrementQuantity(ctx context.Context, userID, productID, variant string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.DecrementQuantity(productID, variant)
	})
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return errDelete
	}

	s.invalidateCache(userID)
	return nil
}

// mutate is the save-on-change path: load the aggregate, apply the change,
// persist the whole cart, drop the cache entry.
func (s *Service) mutate(ctx context.Context, userID string, apply func(*domain.Cart)) (*domain.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	apply(cart)

	if errUpsert := s.repo.UpsertCart(ctx, cart); errUpsert != nil {
		log.Printf("repo upsert cart error: %v \n", errUpsert)
		return nil, errUpsert
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *Service) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil && errors.Is(err, ErrCartNotFound) { // not found cart return empty cart
		return &domain.Cart{
			UserID:    userID,
			Items:     nil,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
