package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/keycodec"
	"github.com/arkadym/sealbox/internal/server/models"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
)

// OfferParams describes one share offer: the file, the recipient, the file
// key wrapped for that recipient, and the handshake parameters the
// recipient needs to unwrap it.
type OfferParams struct {
	FileID          string
	RecipientID     string
	WrappedFileKey  []byte
	EphemeralPublic string
	OPKIndex        *int
	Permission      string
}

// ShareService drives the share lifecycle: offer, respond, revoke. Shares
// only ever move forward through the state machine; history is never
// deleted.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager) *ShareService {
	return &ShareService{db: db, repomanager: m}
}

// Offer creates a pending share of the owner's file. The wrapped key is
// specific to this recipient; offering the same file to someone else wraps
// the key again under a different handshake.
func (s *ShareService) Offer(ctx context.Context, ownerID string, p *OfferParams) (*models.FileShare, error) {
	if p.Permission != models.PermissionView && p.Permission != models.PermissionDownload {
		return nil, fmt.Errorf("%w: unknown permission %q", common.ErrValidation, p.Permission)
	}
	if len(p.WrappedFileKey) == 0 {
		return nil, fmt.Errorf("%w: wrapped file key is required", common.ErrValidation)
	}
	if _, err := keycodec.DecodeKey(p.EphemeralPublic); err != nil {
		return nil, fmt.Errorf("ephemeral key: %w", err)
	}
	if p.RecipientID == ownerID {
		return nil, fmt.Errorf("%w: cannot share a file with its owner", common.ErrValidation)
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, p.FileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		// Non-owners learn nothing about the file, not even that it exists.
		return nil, common.ErrNotFound
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, p.RecipientID); err != nil {
		return nil, err
	}

	share := &models.FileShare{
		FileID:          p.FileID,
		OwnerID:         ownerID,
		RecipientID:     p.RecipientID,
		WrappedFileKey:  p.WrappedFileKey,
		EphemeralPublic: p.EphemeralPublic,
		OPKIndex:        p.OPKIndex,
		Permission:      p.Permission,
		Status:          models.ShareStatusPending,
	}
	return s.repomanager.Shares(s.db).Create(ctx, share)
}

// Respond lets the recipient accept or decline a pending share. Declining
// also discards the wrapped key: a declined offer leaves nothing behind to
// unwrap.
func (s *ShareService) Respond(ctx context.Context, recipientID, shareID string, accept bool) (*models.FileShare, error) {
	share, err := s.repomanager.Shares(s.db).GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.RecipientID != recipientID {
		return nil, common.ErrNotFound
	}

	to := models.ShareStatusDeclined
	if accept {
		to = models.ShareStatusAccepted
	}
	if !models.ValidTransition(share.Status, to) {
		return nil, common.ErrInvalidTransition
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Shares(tx)
		if err := repo.UpdateStatus(ctx, shareID, share.Status, to); err != nil {
			return err
		}
		if !accept {
			return repo.ClearWrappedKey(ctx, shareID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	share.Status = to
	return share, nil
}

// Revoke withdraws an accepted share and discards the server-held wrapped
// key in the same transaction, so the copy can never be handed out again.
func (s *ShareService) Revoke(ctx context.Context, ownerID, shareID string) error {
	share, err := s.repomanager.Shares(s.db).GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if share.OwnerID != ownerID {
		return common.ErrNotFound
	}
	if !models.ValidTransition(share.Status, models.ShareStatusRevoked) {
		return common.ErrInvalidTransition
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Shares(tx)
		if err := repo.UpdateStatus(ctx, shareID, share.Status, models.ShareStatusRevoked); err != nil {
			return err
		}
		return repo.ClearWrappedKey(ctx, shareID)
	})
}

// List returns the user's outbox (shares they offered) and inbox (shares
// offered to them).
func (s *ShareService) List(ctx context.Context, userID string) (outbox, inbox []*models.FileShare, err error) {
	repo := s.repomanager.Shares(s.db)
	outbox, err = repo.ListForOwner(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	inbox, err = repo.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return outbox, inbox, nil
}
