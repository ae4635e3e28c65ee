package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash,
		    ik_public, ik_signing_public, spk_public, spk_signature,
		    nonce, salt, vault_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash,
		user.IKPublic, user.IKSigningPublic, user.SPKPublic, user.SPKSignature,
		user.Nonce, user.Salt, user.VaultRef).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const userColumns = `id, username, email, password_hash,
	    ik_public, ik_signing_public, spk_public, spk_signature,
	    nonce, salt, vault_ref,
	    recovery_key_encrypted, recovery_key_nonce, COALESCE(recovery_salt, ''),
	    COALESCE(reset_pin_hash, ''), COALESCE(reset_pin_expires_at, 'epoch'::timestamptz),
	    created_at`

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IKPublic, &user.IKSigningPublic, &user.SPKPublic, &user.SPKSignature,
		&user.Nonce, &user.Salt, &user.VaultRef,
		&user.RecoveryKeyEncrypted, &user.RecoveryKeyNonce, &user.RecoverySalt,
		&user.ResetPINHash, &user.ResetPINExpiresAt,
		&user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	return r.exec(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdateRecovery(ctx context.Context, id, recoveryKeyEncrypted, recoveryKeyNonce string, recoverySalt []byte) error {
	query :=
		`UPDATE users SET recovery_key_encrypted = $2, recovery_key_nonce = $3, recovery_salt = $4
		 WHERE id = $1`
	return r.exec(ctx, query, id, recoveryKeyEncrypted, recoveryKeyNonce, recoverySalt)
}

func (r *PostgresRepository) SetResetPIN(ctx context.Context, id string, pinHash []byte, expiresAt time.Time) error {
	query := `UPDATE users SET reset_pin_hash = $2, reset_pin_expires_at = $3 WHERE id = $1`
	return r.exec(ctx, query, id, pinHash, expiresAt)
}

func (r *PostgresRepository) ClearResetPIN(ctx context.Context, id string) error {
	query := `UPDATE users SET reset_pin_hash = NULL, reset_pin_expires_at = NULL WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
