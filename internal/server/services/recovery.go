package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/logging"
	"github.com/arkadym/sealbox/internal/ratelimit"
	"github.com/arkadym/sealbox/internal/recovery"
	"github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
)

const recoverySaltSize = 16

// dummyRecoverySalt feeds the key derivation on branches that must fail.
// An unknown username pays the same PBKDF2 work as a wrong mnemonic, so
// the two stay indistinguishable through timing as well as shape.
var dummyRecoverySalt = common.GenerateRandByteArray(recoverySaltSize)

func failWithDummyDerivation(words []string) error {
	common.WipeByteArray(recovery.DeriveWrappingKey(words, dummyRecoverySalt))
	return common.ErrAuthentication
}

// Notifier delivers a reset PIN out of band. Delivery failures are logged,
// never surfaced: the HTTP response must not reveal whether anything was
// sent.
type Notifier interface {
	SendPIN(ctx context.Context, email, pin string) error
}

// LogNotifier is the development Notifier: it logs instead of sending.
type LogNotifier struct {
	Logger logging.Logger
}

func (n *LogNotifier) SendPIN(ctx context.Context, email, pin string) error {
	n.Logger.Info(ctx, "reset PIN issued", "email", email, "pin", pin)
	return nil
}

// RecoveryService owns account recovery: the mnemonic escrow path and the
// PIN-gated password reset path. Both verification paths share one
// sliding-window limiter keyed by username.
type RecoveryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     *ratelimit.Window
	notifier    Notifier
	logger      logging.Logger

	pinValidity time.Duration
	now         func() time.Time
}

func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, notifier Notifier, logger logging.Logger) *RecoveryService {
	return &RecoveryService{
		db:          db,
		repomanager: m,
		limiter:     ratelimit.NewWindow(cfg.RecoveryAttemptLimit, cfg.RecoveryAttemptWindow),
		notifier:    notifier,
		logger:      logger,
		pinValidity: cfg.ResetPINValidityDuration,
		now:         time.Now,
	}
}

// EnableRecovery escrows the caller's recovery secret under a fresh
// mnemonic. The words are derived and returned exactly once; the server
// keeps only the salt and the sealed secret.
func (s *RecoveryService) EnableRecovery(ctx context.Context, userID string, secret []byte) ([]string, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: recovery secret is required", common.ErrValidation)
	}

	words, err := recovery.GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	salt := common.GenerateRandByteArray(recoverySaltSize)

	key := recovery.DeriveWrappingKey(words, salt)
	defer common.WipeByteArray(key)

	sealed, err := recovery.EncryptField(secret, key)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Users(s.db).UpdateRecovery(ctx, userID, sealed, "", salt); err != nil {
		return nil, err
	}
	return words, nil
}

// RecoverWithMnemonic opens the escrowed secret with the user's mnemonic.
// Attempts are rate limited per username; a wrong mnemonic and an unknown
// username fail identically.
func (s *RecoveryService) RecoverWithMnemonic(ctx context.Context, username string, words []string) ([]byte, error) {
	if !s.limiter.Allow(username) {
		return nil, common.ErrRateLimited
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, failWithDummyDerivation(words)
		}
		return nil, common.ErrInternal
	}
	if user.RecoveryKeyEncrypted == "" {
		return nil, failWithDummyDerivation(words)
	}

	key := recovery.DeriveWrappingKey(words, user.RecoverySalt)
	defer common.WipeByteArray(key)

	secret, err := recovery.DecryptField(user.RecoveryKeyEncrypted, key)
	if err != nil {
		return nil, common.ErrAuthentication
	}

	s.limiter.Reset(username)
	return secret, nil
}

// RequestPIN issues a short-lived reset PIN and hands it to the notifier.
// The result is deliberately void: the caller cannot tell whether the
// username exists.
func (s *RecoveryService) RequestPIN(ctx context.Context, username string) error {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return common.ErrInternal
	}

	pin, err := recovery.GeneratePIN()
	if err != nil {
		return common.ErrInternal
	}
	expires := s.now().Add(s.pinValidity)

	if err := s.repomanager.Users(s.db).SetResetPIN(ctx, user.ID, recovery.HashPIN(pin), expires); err != nil {
		return common.ErrInternal
	}

	if err := s.notifier.SendPIN(ctx, user.Email, pin); err != nil {
		s.logger.Error(ctx, "reset PIN delivery failed", "error", err)
	}
	return nil
}

// VerifyPINAndChangePassword checks the PIN and, on success, swaps the
// password hash and burns the PIN in one transaction. Expired and wrong
// PINs are distinct sentinels internally; the HTTP surface collapses them.
func (s *RecoveryService) VerifyPINAndChangePassword(ctx context.Context, username, pin, newPassword string) error {
	if !s.limiter.Allow(username) {
		return common.ErrRateLimited
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = recovery.CheckPIN(recovery.HashPIN(""), time.Time{}, pin, s.now())
			return common.ErrAuthentication
		}
		return common.ErrInternal
	}

	if err := recovery.CheckPIN(user.ResetPINHash, user.ResetPINExpiresAt, pin, s.now()); err != nil {
		return err
	}

	passwordHash, err := recovery.HashPassword(newPassword)
	if err != nil {
		return common.ErrInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return err
		}
		return repo.ClearResetPIN(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.limiter.Reset(username)
	return nil
}
