package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/envelope"
)

const bundleKeyPrefix = "bundle/"

// Store persists private key bundles in BadgerDB. Every value is sealed
// under the vault master key before it touches disk, so a copied database
// directory alone reveals nothing.
type Store struct {
	db        *badger.DB
	masterKey []byte
}

// StoreConfig configures the on-disk location and at-rest key.
type StoreConfig struct {
	Path      string
	MasterKey []byte
}

// NewStore opens (or creates) the Badger database at cfg.Path.
func NewStore(cfg StoreConfig) (*Store, error) {
	if len(cfg.MasterKey) != envelope.KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes", common.ErrValidation, envelope.KeySize)
	}
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vault db: %w", err)
	}
	return &Store{db: db, masterKey: cfg.MasterKey}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put upserts a bundle. Storing the same bundle twice is a no-op at the
// caller's level, which makes registration retries safe on this side.
func (s *Store) Put(b *PrivateKeyBundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	plaintext, err := json.Marshal(b)
	if err != nil {
		return err
	}
	nonce, sealed, err := envelope.Encrypt(plaintext, s.masterKey)
	if err != nil {
		return err
	}
	value := append(nonce, sealed...)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(bundleKeyPrefix+b.EncryptedID), value)
	})
}

// Get returns the bundle stored for encryptedID, or common.ErrNotFound.
func (s *Store) Get(encryptedID string) (*PrivateKeyBundle, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bundleKeyPrefix + encryptedID))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read vault db: %w", err)
	}

	if len(value) < envelope.NonceSize {
		return nil, common.ErrAuthentication
	}
	plaintext, err := envelope.Decrypt(value[envelope.NonceSize:], value[:envelope.NonceSize], s.masterKey)
	if err != nil {
		return nil, err
	}

	b := &PrivateKeyBundle{}
	if err := json.Unmarshal(plaintext, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the bundle for encryptedID. Deleting an absent bundle is
// not an error; the call is used during account deletion and may race a
// previous delete.
func (s *Store) Delete(encryptedID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(bundleKeyPrefix + encryptedID))
	})
}

// Health probes the database with a cheap read-only transaction.
func (s *Store) Health() error {
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health/probe"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
