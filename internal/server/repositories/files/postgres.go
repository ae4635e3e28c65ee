package files

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

func (r *PostgresRepository) Create(ctx context.Context, file *models.FileObject) (*models.FileObject, error) {

	query :=
		`INSERT INTO file_objects (owner_id, file_name, nonce, storage_key, size, chunked)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.FileName, file.Nonce, file.StorageKey,
		file.Size, file.Chunked).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

const fileColumns = `id, owner_id, file_name, nonce, storage_key, size, chunked, created_at`

func scanFile(scan func(dest ...any) error) (*models.FileObject, error) {
	file := &models.FileObject{}
	err := scan(&file.ID, &file.OwnerID, &file.FileName, &file.Nonce,
		&file.StorageKey, &file.Size, &file.Chunked, &file.CreatedAt)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileObject, error) {
	query := `SELECT ` + fileColumns + ` FROM file_objects WHERE id = $1`

	file, err := scanFile(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID string) ([]*models.FileObject, error) {
	query := `SELECT ` + fileColumns + ` FROM file_objects WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.FileObject
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM file_objects WHERE id = $1`

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
