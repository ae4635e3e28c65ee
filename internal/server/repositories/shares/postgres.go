package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error) {

	query :=
		`INSERT INTO file_shares (file_id, owner_id, recipient_id,
		    wrapped_file_key, ephemeral_public, opk_index, permission, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		share.FileID, share.OwnerID, share.RecipientID,
		share.WrappedFileKey, share.EphemeralPublic, share.OPKIndex,
		share.Permission, share.Status).Scan(&share.ID, &share.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

const shareColumns = `id, file_id, owner_id, recipient_id,
	    wrapped_file_key, ephemeral_public, opk_index,
	    permission, status, created_at, responded_at`

func scanShare(scan func(dest ...any) error) (*models.FileShare, error) {
	share := &models.FileShare{}
	err := scan(&share.ID, &share.FileID, &share.OwnerID, &share.RecipientID,
		&share.WrappedFileKey, &share.EphemeralPublic, &share.OPKIndex,
		&share.Permission, &share.Status, &share.CreatedAt, &share.RespondedAt)
	if err != nil {
		return nil, err
	}
	return share, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileShare, error) {
	query := `SELECT ` + shareColumns + ` FROM file_shares WHERE id = $1`

	share, err := scanShare(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return share, nil
}

// UpdateStatus is conditional on the current status. Zero rows affected
// means the share either does not exist or has already left the expected
// state; either way the requested transition is no longer valid.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	query :=
		`UPDATE file_shares SET status = $3, responded_at = now()
		 WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresRepository) GetForFileAndRecipient(ctx context.Context, fileID, recipientID string) (*models.FileShare, error) {
	query := `SELECT ` + shareColumns + `
		 FROM file_shares WHERE file_id = $1 AND recipient_id = $2
		 ORDER BY created_at DESC LIMIT 1`

	share, err := scanShare(r.db.QueryRowContext(ctx, query, fileID, recipientID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return share, nil
}

func (r *PostgresRepository) ClearWrappedKey(ctx context.Context, id string) error {
	query := `UPDATE file_shares SET wrapped_file_key = ''::bytea WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID string) ([]*models.FileShare, error) {
	query := `SELECT ` + shareColumns + ` FROM file_shares WHERE owner_id = $1 ORDER BY created_at`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListForRecipient(ctx context.Context, recipientID string) ([]*models.FileShare, error) {
	query := `SELECT ` + shareColumns + ` FROM file_shares WHERE recipient_id = $1 ORDER BY created_at`
	return r.list(ctx, query, recipientID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.FileShare, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.FileShare
	for rows.Next() {
		share, err := scanShare(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
