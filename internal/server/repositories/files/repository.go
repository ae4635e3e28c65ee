// Package files persists file metadata. Ciphertext lives in object
// storage; only the storage key and envelope nonce are recorded here.
package files

import (
	"context"

	"github.com/arkadym/sealbox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.FileObject) (*models.FileObject, error)
	GetByID(ctx context.Context, id string) (*models.FileObject, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*models.FileObject, error)
	Delete(ctx context.Context, id string) error
}
