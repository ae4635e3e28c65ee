// Package services contains server-side business logic. This file implements
// BundleService, which owns registration of a user's published key bundle
// and the consume-one-prekey fetch that starts a share handshake.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/keycodec"
	"github.com/arkadym/sealbox/internal/recovery"
	"github.com/arkadym/sealbox/internal/server/models"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
	"github.com/arkadym/sealbox/internal/vault"
	"github.com/arkadym/sealbox/internal/vaultclient"
)

// VaultClient is the slice of the vault client the services use.
type VaultClient interface {
	StoreKeyBundle(ctx context.Context, b *vault.PrivateKeyBundle) error
	RetrieveKeyBundle(ctx context.Context, encryptedID string) (*vault.PrivateKeyBundle, error)
	DeleteKeyBundle(ctx context.Context, encryptedID string) error
	Health(ctx context.Context) vaultclient.HealthStatus
}

// RegisterParams carries everything a new account publishes: credentials,
// the public key bundle, and the private halves destined for vault custody.
type RegisterParams struct {
	Username string
	Email    string
	Password string

	IKPublic        string
	IKSigningPublic string
	SPKPublic       string
	SPKSignature    string
	OPKPublics      []string

	Nonce string
	Salt  string

	// EncryptedID names the vault record; the private fields are already
	// sealed client-side, the server never sees plaintext private keys.
	EncryptedID string
	IKPrivate   string
	SPKPrivate  string
	OPKsPrivate []string
}

// InitiationBundle is what an initiator needs to run the handshake against
// a responder. OPK fields are absent when the responder's supply ran out;
// Degraded marks that weaker mode explicitly.
type InitiationBundle struct {
	IKPublic        string
	IKSigningPublic string
	SPKPublic       string
	SPKSignature    string
	OPKPublic       string
	OPKIndex        *int
	Degraded        bool
}

type BundleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       VaultClient
}

func NewBundleService(db *sql.DB, m repomanager.RepositoryManager, v VaultClient) *BundleService {
	return &BundleService{db: db, repomanager: m, vault: v}
}

// validateBundle checks every published field decodes to key material of
// the right shape and that the SPK signature verifies against the signing
// identity key. A bundle failing any check is rejected whole.
func validateBundle(p *RegisterParams) error {
	if _, err := keycodec.DecodeKey(p.IKPublic); err != nil {
		return fmt.Errorf("identity key: %w", err)
	}
	signing, err := keycodec.DecodeSigningKey(p.IKSigningPublic)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	spk, err := keycodec.DecodeKey(p.SPKPublic)
	if err != nil {
		return fmt.Errorf("signed prekey: %w", err)
	}
	sig, err := keycodec.DecodeSignature(p.SPKSignature)
	if err != nil {
		return fmt.Errorf("prekey signature: %w", err)
	}
	if err := keycodec.VerifyPrekeySignature(signing, spk, sig); err != nil {
		return err
	}
	for i, opk := range p.OPKPublics {
		if _, err := keycodec.DecodeKey(opk); err != nil {
			return fmt.Errorf("one-time prekey %d: %w", i, err)
		}
	}
	return nil
}

// RegisterBundle creates the account and its published bundle, and hands
// the private halves to the vault. The vault call runs inside the database
// transaction: if custody fails, the user row never lands.
func (s *BundleService) RegisterBundle(ctx context.Context, p *RegisterParams) (*models.User, error) {
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}
	if p.Nonce == "" || p.Salt == "" {
		return nil, fmt.Errorf("%w: registration nonce and salt are required", common.ErrValidation)
	}
	if err := validateBundle(p); err != nil {
		return nil, err
	}

	bundle := &vault.PrivateKeyBundle{
		EncryptedID: p.EncryptedID,
		IKPrivate:   p.IKPrivate,
		SPKPrivate:  p.SPKPrivate,
		OPKsPrivate: p.OPKsPrivate,
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if len(p.OPKPublics) != len(p.OPKsPrivate) {
		return nil, fmt.Errorf("%w: prekey halves do not line up", common.ErrValidation)
	}

	passwordHash, err := recovery.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Username:        p.Username,
		Email:           p.Email,
		PasswordHash:    passwordHash,
		VaultRef:        p.EncryptedID,
		IKPublic:        p.IKPublic,
		IKSigningPublic: p.IKSigningPublic,
		SPKPublic:       p.SPKPublic,
		SPKSignature:    p.SPKSignature,
		Nonce:           p.Nonce,
		Salt:            p.Salt,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		if err := s.repomanager.Prekeys(tx).CreateBatch(ctx, user.ID, p.OPKPublics); err != nil {
			return err
		}
		return s.vault.StoreKeyBundle(ctx, bundle)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FetchBundleForInitiation returns the responder's published bundle with
// one OPK consumed. When the supply is exhausted the bundle comes back
// without an OPK and Degraded set; that is a valid, weaker handshake, not
// a failure.
func (s *BundleService) FetchBundleForInitiation(ctx context.Context, userID string) (*InitiationBundle, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	bundle := &InitiationBundle{
		IKPublic:        user.IKPublic,
		IKSigningPublic: user.IKSigningPublic,
		SPKPublic:       user.SPKPublic,
		SPKSignature:    user.SPKSignature,
	}

	opk, err := s.repomanager.Prekeys(s.db).ConsumeRandom(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrOPKExhausted) {
			bundle.Degraded = true
			return bundle, nil
		}
		return nil, err
	}

	idx := opk.Idx
	bundle.OPKPublic = opk.PublicKey
	bundle.OPKIndex = &idx
	return bundle, nil
}

// DeleteAccount removes the user row and the vault record holding the
// private key halves. The record to delete comes from the caller's own row,
// never from the request. Prekeys, files and shares go with the row via
// cascading deletes. The vault call runs inside the transaction so a
// custody failure leaves the account intact.
func (s *BundleService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Delete(ctx, userID); err != nil {
			return err
		}
		if user.VaultRef == "" {
			return nil
		}
		return s.vault.DeleteKeyBundle(ctx, user.VaultRef)
	})
}

// RetrievePrivateBundle fetches the caller's own private bundle from the
// vault. Knowing a record name is not authorization: the name must match
// the one stored on the caller's row, or the record does not exist as far
// as this caller is concerned.
func (s *BundleService) RetrievePrivateBundle(ctx context.Context, userID, encryptedID string) (*vault.PrivateKeyBundle, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VaultRef == "" || user.VaultRef != encryptedID {
		return nil, common.ErrNotFound
	}
	return s.vault.RetrieveKeyBundle(ctx, encryptedID)
}

// VaultHealth reports the custody daemon's health for the service status
// endpoint.
func (s *BundleService) VaultHealth(ctx context.Context) vaultclient.HealthStatus {
	return s.vault.Health(ctx)
}
