package prekeys

import (
	"context"

	"github.com/arkadym/sealbox/internal/server/models"
)

type Repository interface {
	CreateBatch(ctx context.Context, userID string, publicKeys []string) error
	// ConsumeRandom atomically removes and returns one of the user's
	// remaining one-time prekeys, or common.ErrOPKExhausted.
	ConsumeRandom(ctx context.Context, userID string) (*models.OneTimePrekey, error)
	CountRemaining(ctx context.Context, userID string) (int, error)
}
