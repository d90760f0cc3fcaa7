package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/ports/mocks"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

var sampleRates = map[string]float64{
	"USD": 1.089158,
	"CAD": 1.4534,
	"GBP": 0.879866,
	"JPY": 141.697279,
}

type forexTestDeps struct {
	svc     *ForexService
	repo    *mocks.MockRateSnapshotRepository
	cache   *mocks.MockRateCache
	fetcher *mocks.MockRateFetcher
	ctrl    *gomock.Controller
}

func setupForexService(t *testing.T, withCache bool) *forexTestDeps {
	ctrl := gomock.NewController(t)
	d := &forexTestDeps{
		repo:    mocks.NewMockRateSnapshotRepository(ctrl),
		fetcher: mocks.NewMockRateFetcher(ctrl),
		ctrl:    ctrl,
	}
	if withCache {
		d.cache = mocks.NewMockRateCache(ctrl)
		d.svc = NewForexService(d.repo, d.cache, d.fetcher, "EUR", time.Hour, zerolog.Nop())
	} else {
		d.svc = NewForexService(d.repo, nil, d.fetcher, "EUR", time.Hour, zerolog.Nop())
	}
	d.svc.now = func() time.Time { return fixedNow }
	return d
}

func snapshotAt(ts time.Time) *domain.RateSnapshot {
	s := domain.NewRateSnapshot(ts, "EUR", sampleRates)
	return &s
}

func TestForexService_FreshStoredSnapshotSkipsFetch(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	stored := snapshotAt(fixedNow.Add(-10 * time.Minute))

	d.repo.EXPECT().Latest(ctx).Return(stored, nil)

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, snap)
}

func TestForexService_StaleSnapshotIsRefreshed(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	fetched := snapshotAt(fixedNow)

	d.repo.EXPECT().Latest(ctx).Return(snapshotAt(fixedNow.Add(-2*time.Hour)), nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(fetched, nil)
	d.repo.EXPECT().Insert(ctx, *fetched).Return(nil)

	rates, base, err := d.svc.GetRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", base)
	assert.Equal(t, 1.0, rates["EUR"])
	assert.Equal(t, 1.089158, rates["USD"])
}

func TestForexService_FetchFailureFallsBackToStale(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	stale := snapshotAt(fixedNow.Add(-72 * time.Hour))

	d.repo.EXPECT().Latest(ctx).Return(stale, nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(nil, errors.New("503 from rate api"))

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, stale, snap)
}

func TestForexService_NoSnapshotAndFetchFails(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()

	d.repo.EXPECT().Latest(ctx).Return(nil, nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(nil, errors.New("connection refused"))

	_, _, err := d.svc.GetRates(ctx)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, "EXT_001"))
}

func TestForexService_InsertFailureStillServesFetched(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	fetched := snapshotAt(fixedNow)

	d.repo.EXPECT().Latest(ctx).Return(nil, nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(fetched, nil)
	d.repo.EXPECT().Insert(ctx, *fetched).Return(errors.New("disk full"))

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, fetched, snap)
}

func TestForexService_RepoErrorTreatedAsMiss(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	fetched := snapshotAt(fixedNow)

	d.repo.EXPECT().Latest(ctx).Return(nil, errors.New("db down"))
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(fetched, nil)
	d.repo.EXPECT().Insert(ctx, *fetched).Return(nil)

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, fetched, snap)
}

// Two calls inside the refresh window return the same table even though
// the rate API would fail on the second call.
func TestForexService_IdenticalWithinTTL(t *testing.T) {
	d := setupForexService(t, false)
	ctx := context.Background()
	fetched := snapshotAt(fixedNow)

	gomock.InOrder(
		d.repo.EXPECT().Latest(ctx).Return(nil, nil),
		d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(fetched, nil),
		d.repo.EXPECT().Insert(ctx, *fetched).Return(nil),
		d.repo.EXPECT().Latest(ctx).Return(fetched, nil),
	)
	d.fetcher.EXPECT().FetchLatest(gomock.Any(), gomock.Any()).Return(nil, errors.New("api down")).AnyTimes()

	first, _, err := d.svc.GetRates(ctx)
	require.NoError(t, err)

	d.svc.now = func() time.Time { return fixedNow.Add(30 * time.Minute) }
	second, _, err := d.svc.GetRates(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForexService_CacheHitSkipsRepo(t *testing.T) {
	d := setupForexService(t, true)
	ctx := context.Background()
	cached := snapshotAt(fixedNow.Add(-5 * time.Minute))

	d.cache.EXPECT().Get(ctx).Return(cached, nil)

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, snap)
}

func TestForexService_CacheMissPopulatesCache(t *testing.T) {
	d := setupForexService(t, true)
	ctx := context.Background()
	stored := snapshotAt(fixedNow.Add(-15 * time.Minute))

	d.cache.EXPECT().Get(ctx).Return(nil, nil)
	d.repo.EXPECT().Latest(ctx).Return(stored, nil)
	d.cache.EXPECT().Set(ctx, *stored, 45*time.Minute).Return(nil)

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, snap)
}

func TestForexService_CacheErrorsAreNotFatal(t *testing.T) {
	d := setupForexService(t, true)
	ctx := context.Background()
	fetched := snapshotAt(fixedNow)

	d.cache.EXPECT().Get(ctx).Return(nil, errors.New("redis timeout"))
	d.repo.EXPECT().Latest(ctx).Return(nil, nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(fetched, nil)
	d.repo.EXPECT().Insert(ctx, *fetched).Return(nil)
	d.cache.EXPECT().Set(ctx, *fetched, time.Hour).Return(errors.New("redis timeout"))

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, fetched, snap)
}

func TestForexService_StaleCacheEntryIgnored(t *testing.T) {
	d := setupForexService(t, true)
	ctx := context.Background()
	stale := snapshotAt(fixedNow.Add(-3 * time.Hour))

	d.cache.EXPECT().Get(ctx).Return(stale, nil)
	d.repo.EXPECT().Latest(ctx).Return(stale, nil)
	d.fetcher.EXPECT().FetchLatest(ctx, "EUR").Return(nil, errors.New("api down"))

	snap, err := d.svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, stale, snap, "stale fallback is not written back to the cache")
}
