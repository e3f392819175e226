package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

const DefaultRankingSize = 3

// KarmaService is the karma store interface used by the dispatcher. Each
// mutation is a read-modify-write on the repository serialized per
// subject; mutations of different subjects never wait on each other.
type KarmaService struct {
	repo      ports.KarmaRepository
	clock     ports.Clock
	telemetry ports.Telemetry
	locks     *keyedLocker
}

func NewKarmaService(repo ports.KarmaRepository, clock ports.Clock, telemetry ports.Telemetry) *KarmaService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}

	return &KarmaService{
		repo:      repo,
		clock:     clock,
		telemetry: telemetry,
		locks:     newKeyedLocker(),
	}
}

func (s *KarmaService) Increment(ctx context.Context, subject domain.Subject) (int64, error) {
	return s.apply(ctx, subject, 1)
}

func (s *KarmaService) Decrement(ctx context.Context, subject domain.Subject) (int64, error) {
	return s.apply(ctx, subject, -1)
}

// Query returns the subject's score and whether a record exists. It never
// creates a record.
func (s *KarmaService) Query(ctx context.Context, subject domain.Subject) (int64, bool, error) {
	if subject == "" {
		return 0, false, domain.ErrInvalidSubject
	}

	started := time.Now()
	record, err := s.repo.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrSubjectNotFound) {
			s.telemetry.StoreCall("query", time.Since(started), nil)
			return 0, false, nil
		}
		s.telemetry.StoreCall("query", time.Since(started), err)
		return 0, false, unavailable("get karma record", err)
	}
	s.telemetry.StoreCall("query", time.Since(started), nil)

	return record.Score, true, nil
}

func (s *KarmaService) Ranking(ctx context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error) {
	if !order.Valid() {
		return nil, fmt.Errorf("unsupported ranking order %q", order)
	}
	if limit <= 0 {
		limit = DefaultRankingSize
	}

	started := time.Now()
	records, err := s.repo.List(ctx, order, limit)
	s.telemetry.StoreCall("ranking", time.Since(started), err)
	if err != nil {
		return nil, unavailable("list karma records", err)
	}

	return records, nil
}

// apply runs detached from ctx cancellation: once the subject lock is
// taken the write is finished even if the session goes away.
func (s *KarmaService) apply(ctx context.Context, subject domain.Subject, delta int64) (int64, error) {
	if subject == "" {
		return 0, domain.ErrInvalidSubject
	}
	ctx = context.WithoutCancel(ctx)

	unlock := s.locks.Lock(subject)
	defer unlock()

	started := time.Now()
	score, err := s.readModifyWrite(ctx, subject, delta)
	s.telemetry.StoreCall("mutate", time.Since(started), err)

	return score, err
}

func (s *KarmaService) readModifyWrite(ctx context.Context, subject domain.Subject, delta int64) (int64, error) {
	record, err := s.repo.Get(ctx, subject)
	if err != nil {
		if !errors.Is(err, domain.ErrSubjectNotFound) {
			return 0, unavailable("get karma record", err)
		}
		record = domain.KarmaRecord{Subject: subject}
	}

	record = record.Apply(delta, s.clock.Now())

	if err := s.repo.Save(ctx, record); err != nil {
		return 0, unavailable("save karma record", err)
	}

	return record.Score, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
