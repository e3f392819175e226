package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports/mocks"
)

func TestKarmaServiceIncrementCreatesRecord(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	clock := mocks.NewMockClock(t)
	service := NewKarmaService(repo, clock, nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock.EXPECT().Now().Return(now)
	repo.EXPECT().Get(mockAnyContext(), domain.Subject("widget")).Return(domain.KarmaRecord{}, domain.ErrSubjectNotFound)
	repo.EXPECT().Save(mockAnyContext(), domain.KarmaRecord{Subject: "widget", Score: 1, UpdatedAt: now}).Return(nil)

	score, err := service.Increment(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, int64(1), score)
}

func TestKarmaServiceDecrementUpdatesExistingRecord(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	clock := mocks.NewMockClock(t)
	service := NewKarmaService(repo, clock, nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock.EXPECT().Now().Return(now)
	repo.EXPECT().Get(mockAnyContext(), domain.Subject("widget")).Return(domain.KarmaRecord{Subject: "widget", Score: 3}, nil)
	repo.EXPECT().Save(mockAnyContext(), domain.KarmaRecord{Subject: "widget", Score: 2, UpdatedAt: now}).Return(nil)

	score, err := service.Decrement(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, int64(2), score)
}

func TestKarmaServiceMutationRejectsEmptySubject(t *testing.T) {
	service := NewKarmaService(mocks.NewMockKarmaRepository(t), nil, nil)

	_, err := service.Increment(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidSubject)
}

func TestKarmaServiceQueryMissingSubjectCreatesNoRecord(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	service := NewKarmaService(repo, nil, nil)

	repo.EXPECT().Get(mockAnyContext(), domain.Subject("nobody")).Return(domain.KarmaRecord{}, domain.ErrSubjectNotFound)

	score, found, err := service.Query(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, score)
	repo.AssertNotCalled(t, "Save", mockAnyContext(), mockAnyContext())
}

func TestKarmaServiceQueryWrapsRepositoryFailure(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	service := NewKarmaService(repo, nil, nil)

	diskErr := errors.New("disk I/O error")
	repo.EXPECT().Get(mockAnyContext(), domain.Subject("widget")).Return(domain.KarmaRecord{}, diskErr)

	_, _, err := service.Query(context.Background(), "widget")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.ErrorIs(t, err, diskErr)
}

func TestKarmaServiceSaveFailureIsStoreUnavailable(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	service := NewKarmaService(repo, nil, nil)

	repo.EXPECT().Get(mockAnyContext(), domain.Subject("widget")).Return(domain.KarmaRecord{}, domain.ErrSubjectNotFound)
	repo.EXPECT().Save(mockAnyContext(), mockAnyContext()).Return(errors.New("database is locked"))

	_, err := service.Increment(context.Background(), "widget")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestKarmaServiceMutationSurvivesCancelledContext(t *testing.T) {
	repo := newMemoryRepository()
	service := NewKarmaService(repo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	score, err := service.Increment(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, int64(1), score)
	assert.Equal(t, int64(1), repo.score("widget"))
}

func TestKarmaServiceIncrementThenDecrementRestoresScore(t *testing.T) {
	repo := newMemoryRepository()
	service := NewKarmaService(repo, nil, nil)
	ctx := context.Background()

	for range 4 {
		_, err := service.Increment(ctx, "widget")
		require.NoError(t, err)
	}
	before, _, err := service.Query(ctx, "widget")
	require.NoError(t, err)

	_, err = service.Increment(ctx, "widget")
	require.NoError(t, err)
	after, err := service.Decrement(ctx, "widget")
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestKarmaServiceConcurrentMutationsLoseNoUpdates(t *testing.T) {
	repo := newMemoryRepository()
	service := NewKarmaService(repo, nil, nil)
	ctx := context.Background()

	const increments, decrements = 200, 75

	var wg sync.WaitGroup
	errs := make(chan error, increments+decrements+increments)
	for range increments {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := service.Increment(ctx, "widget")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := service.Increment(ctx, "gadget")
			errs <- err
		}()
	}
	for range decrements {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Decrement(ctx, "widget")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	score, found, err := service.Query(ctx, "widget")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(increments-decrements), score)
	assert.Equal(t, int64(increments), repo.score("gadget"))
	assert.Zero(t, service.locks.size())
}

func TestKarmaServiceRankingDefaultsLimit(t *testing.T) {
	repo := mocks.NewMockKarmaRepository(t)
	service := NewKarmaService(repo, nil, nil)

	records := []domain.KarmaRecord{{Subject: "a", Score: 5}}
	repo.EXPECT().List(mockAnyContext(), domain.RankingTop, DefaultRankingSize).Return(records, nil)

	got, err := service.Ranking(context.Background(), domain.RankingTop, 0)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestKarmaServiceRankingRejectsUnknownOrder(t *testing.T) {
	service := NewKarmaService(mocks.NewMockKarmaRepository(t), nil, nil)

	_, err := service.Ranking(context.Background(), domain.RankingOrder("sideways"), 3)
	require.Error(t, err)
}

func TestKeyedLockerSerializesSameSubjectOnly(t *testing.T) {
	locks := newKeyedLocker()

	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	assert.Equal(t, 2, locks.size())

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := locks.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same subject acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	<-released
	unlockB()

	assert.Zero(t, locks.size())
}
