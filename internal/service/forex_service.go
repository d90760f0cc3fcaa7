package service

import (
	"context"
	"errors"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

// ForexService implements ports.RateService.
//
// Lookup order: the shared Redis cache, then the newest stored snapshot,
// then the rate API. A snapshot younger than the request interval is served
// as is. When the API fails, the newest stored snapshot is served whatever
// its age. Concurrent misses may each fetch; every fetch is a plain insert
// and readers always take the newest row, so duplicates are harmless.
type ForexService struct {
	repo     ports.RateSnapshotRepository
	cache    ports.RateCache
	fetcher  ports.RateFetcher
	base     string
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewForexService creates a rate service. cache may be nil.
func NewForexService(
	repo ports.RateSnapshotRepository,
	cache ports.RateCache,
	fetcher ports.RateFetcher,
	base string,
	interval time.Duration,
	log zerolog.Logger,
) *ForexService {
	return &ForexService{
		repo:     repo,
		cache:    cache,
		fetcher:  fetcher,
		base:     base,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// GetRates returns the current rate table and its base currency.
func (s *ForexService) GetRates(ctx context.Context) (money.Rates, string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	return snap.Table(), snap.Base, nil
}

// Snapshot returns the current rate snapshot.
func (s *ForexService) Snapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	now := s.now()

	if snap := s.fromCache(ctx, now); snap != nil {
		return snap, nil
	}

	latest, err := s.repo.Latest(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("forex: failed to read stored snapshot")
		latest = nil
	}
	if latest != nil && latest.FreshAt(now, s.interval) {
		s.toCache(ctx, *latest, now)
		return latest, nil
	}

	fetched, fetchErr := s.fetcher.FetchLatest(ctx, s.base)
	if fetchErr == nil && fetched != nil {
		if err := s.repo.Insert(ctx, *fetched); err != nil {
			s.log.Error().Err(err).Msg("forex: failed to store fetched snapshot")
		}
		s.toCache(ctx, *fetched, now)
		s.log.Info().
			Str("base", fetched.Base).
			Int("currencies", len(fetched.Rates)).
			Msg("forex: rates refreshed")
		return fetched, nil
	}
	if fetchErr == nil {
		fetchErr = errors.New("rate api returned no snapshot")
	}

	if latest != nil {
		s.log.Warn().
			Err(fetchErr).
			Time("snapshot_time", latest.Timestamp).
			Dur("age", latest.Age(now)).
			Msg("forex: rate api unavailable, serving stale snapshot")
		return latest, nil
	}

	s.log.Error().Err(fetchErr).Msg("forex: no rates available")
	return nil, apperror.ErrRatesUnavailable(fetchErr)
}

func (s *ForexService) fromCache(ctx context.Context, now time.Time) *domain.RateSnapshot {
	if s.cache == nil {
		return nil
	}
	snap, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("forex: rate cache read failed")
		return nil
	}
	if snap == nil || !snap.FreshAt(now, s.interval) {
		return nil
	}
	return snap
}

func (s *ForexService) toCache(ctx context.Context, snap domain.RateSnapshot, now time.Time) {
	if s.cache == nil {
		return
	}
	ttl := s.interval - snap.Age(now)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, snap, ttl); err != nil {
		s.log.Warn().Err(err).Msg("forex: rate cache write failed")
	}
}
