package users

import (
	"context"
	"time"

	"github.com/arkadym/sealbox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRecovery(ctx context.Context, id, recoveryKeyEncrypted, recoveryKeyNonce string, recoverySalt []byte) error
	SetResetPIN(ctx context.Context, id string, pinHash []byte, expiresAt time.Time) error
	ClearResetPIN(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
