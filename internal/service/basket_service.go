package service

import (
	"context"
	"fmt"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// BasketService implements ports.BasketService. Each call loads the
// session basket, applies one mutation and saves it back.
type BasketService struct {
	store           ports.BasketStore
	rates           ports.RateService
	defaultCurrency string
	precision       int32
	ttl             time.Duration
	log             zerolog.Logger
}

// NewBasketService creates a basket service.
func NewBasketService(
	store ports.BasketStore,
	rates ports.RateService,
	defaultCurrency string,
	precision int32,
	ttl time.Duration,
	log zerolog.Logger,
) *BasketService {
	return &BasketService{
		store:           store,
		rates:           rates,
		defaultCurrency: defaultCurrency,
		precision:       precision,
		ttl:             ttl,
		log:             log,
	}
}

// Get returns the session basket, or a new empty one.
func (s *BasketService) Get(ctx context.Context, sessionID string) (*domain.Basket, error) {
	return s.load(ctx, sessionID)
}

// AddItem adds an item to the session basket.
func (s *BasketService) AddItem(ctx context.Context, sessionID string, item domain.BasketItem) (*domain.Basket, domain.BasketUpdate, error) {
	b, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, domain.BasketUpdate{}, err
	}
	update, err := b.Add(item)
	if err != nil {
		return nil, domain.BasketUpdate{}, err
	}
	if err := s.save(ctx, sessionID, b); err != nil {
		return nil, domain.BasketUpdate{}, err
	}
	return b, update, nil
}

// RemoveItem removes the line at index. A false result means the index
// was out of range and nothing was saved.
func (s *BasketService) RemoveItem(ctx context.Context, sessionID string, index int) (*domain.Basket, bool, error) {
	b, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	ok, err := b.Remove(index)
	if err != nil || !ok {
		return b, false, err
	}
	if err := s.save(ctx, sessionID, b); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// UpdateItemUnits sets the unit count of a line.
func (s *BasketService) UpdateItemUnits(ctx context.Context, sessionID string, index, units int) (*domain.Basket, bool, error) {
	b, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	ok, err := b.UpdateItemUnits(index, units)
	if err != nil || !ok {
		return b, false, err
	}
	if err := s.save(ctx, sessionID, b); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetCurrency changes the display currency of the session basket.
func (s *BasketService) SetCurrency(ctx context.Context, sessionID string, code string) (*domain.Basket, error) {
	b, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := b.SetCurrency(code); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Clear empties the session basket but keeps its currency.
func (s *BasketService) Clear(ctx context.Context, sessionID string) (*domain.Basket, error) {
	b, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	b.Clear()
	if err := s.save(ctx, sessionID, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Discard deletes the session basket.
func (s *BasketService) Discard(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperror.InternalError(fmt.Errorf("deleting basket: %w", err))
	}
	return nil
}

func (s *BasketService) load(ctx context.Context, sessionID string) (*domain.Basket, error) {
	data, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading basket: %w", err))
	}

	var b *domain.Basket
	if data == nil {
		b, err = domain.NewBasket(s.defaultCurrency, s.precision)
		if err != nil {
			return nil, err
		}
	} else {
		b, err = domain.DecodeBasket(data)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("basket: discarding unreadable basket")
			b, err = domain.NewBasket(s.defaultCurrency, s.precision)
			if err != nil {
				return nil, err
			}
		}
	}

	b.UseRates(s.rateLookup(ctx))
	return b, nil
}

func (s *BasketService) save(ctx context.Context, sessionID string, b *domain.Basket) error {
	data, err := b.MarshalJSON()
	if err != nil {
		return apperror.InternalError(fmt.Errorf("encoding basket: %w", err))
	}
	if err := s.store.Save(ctx, sessionID, data, s.ttl); err != nil {
		return apperror.InternalError(fmt.Errorf("saving basket: %w", err))
	}
	return nil
}

// rateLookup fetches the rate table at most once per request.
func (s *BasketService) rateLookup(ctx context.Context) domain.RateLookup {
	var cached money.Rates
	return func() (money.Rates, error) {
		if cached != nil {
			return cached, nil
		}
		rates, _, err := s.rates.GetRates(ctx)
		if err != nil {
			return nil, err
		}
		cached = rates
		return rates, nil
	}
}
