// Package shares persists the share lifecycle. State changes go through
// UpdateStatus, which is conditional on the expected current state so two
// racing transitions cannot both win.
package shares

import (
	"context"

	"github.com/arkadym/sealbox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error)
	GetByID(ctx context.Context, id string) (*models.FileShare, error)
	// UpdateStatus moves the share from the expected status to the new one
	// and stamps responded_at. It returns common.ErrInvalidTransition when
	// the share is no longer in the expected status.
	UpdateStatus(ctx context.Context, id, from, to string) error
	// GetForFileAndRecipient returns the most recent share of the file to
	// the recipient, or common.ErrNotFound.
	GetForFileAndRecipient(ctx context.Context, fileID, recipientID string) (*models.FileShare, error)
	// ClearWrappedKey blanks the stored wrapped file key. Used on revoke so
	// the server no longer holds a copy the recipient could be handed.
	ClearWrappedKey(ctx context.Context, id string) error
	ListForOwner(ctx context.Context, ownerID string) ([]*models.FileShare, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]*models.FileShare, error)
}
