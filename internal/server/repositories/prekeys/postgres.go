package prekeys

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

func (r *PostgresRepository) CreateBatch(ctx context.Context, userID string, publicKeys []string) error {
	query :=
		`INSERT INTO one_time_prekeys (user_id, idx, public_key)
		 VALUES ($1, $2, $3)
		 `
	for i, pk := range publicKeys {
		if _, err := r.db.ExecContext(ctx, query, userID, i, pk); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// ConsumeRandom picks one remaining OPK uniformly at random and deletes it
// in the same statement. SKIP LOCKED makes two racing initiators take
// different rows instead of blocking or double-issuing: issue-once is a
// correctness requirement, not an optimization.
func (r *PostgresRepository) ConsumeRandom(ctx context.Context, userID string) (*models.OneTimePrekey, error) {
	query :=
		`DELETE FROM one_time_prekeys
		 WHERE id = (
		     SELECT id FROM one_time_prekeys
		     WHERE user_id = $1
		     ORDER BY random()
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, user_id, idx, public_key
		 `

	opk := &models.OneTimePrekey{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&opk.ID, &opk.UserID, &opk.Idx, &opk.PublicKey)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrOPKExhausted
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return opk, nil
}

func (r *PostgresRepository) CountRemaining(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM one_time_prekeys WHERE user_id = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
