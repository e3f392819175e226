package ports

import (
	"context"

	"github.com/bnema/karmabot/internal/domain"
)

// KarmaRepository is the persistence contract behind the karma store. It
// offers plain CRUD; per-subject atomicity is layered on top by the
// application.
type KarmaRepository interface {
	Get(ctx context.Context, subject domain.Subject) (domain.KarmaRecord, error)
	Save(ctx context.Context, record domain.KarmaRecord) error
	List(ctx context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error)
}
