package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/server/models"
	"github.com/arkadym/sealbox/internal/server/repositories/files"
	"github.com/arkadym/sealbox/internal/server/repositories/prekeys"
	"github.com/arkadym/sealbox/internal/server/repositories/shares"
	"github.com/arkadym/sealbox/internal/server/repositories/users"
	"github.com/arkadym/sealbox/internal/vault"
	"github.com/arkadym/sealbox/internal/vaultclient"
)

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byID   map[string]*models.User
	byName map[string]*models.User

	updatedPassword string
	recoverySealed  string
	recoverySalt    []byte
	pinHash         []byte
	pinExpires      time.Time
	pinCleared      bool
	deletedID       string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-new"
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	f.updatedPassword = passwordHash
	return nil
}

func (f *fakeUsersRepo) UpdateRecovery(ctx context.Context, id, sealed, nonce string, salt []byte) error {
	f.recoverySealed = sealed
	f.recoverySalt = salt
	return nil
}

func (f *fakeUsersRepo) SetResetPIN(ctx context.Context, id string, pinHash []byte, expiresAt time.Time) error {
	f.pinHash = pinHash
	f.pinExpires = expiresAt
	return nil
}

func (f *fakeUsersRepo) ClearResetPIN(ctx context.Context, id string) error {
	f.pinCleared = true
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.deletedID = id
	return nil
}

type fakePrekeysRepo struct {
	created    []string
	createErr  error
	consumeOut *models.OneTimePrekey
	consumeErr error
	remaining  int

	// queue, when set, models real consumption: every call removes one
	// prekey until the supply runs out.
	queue []*models.OneTimePrekey
}

func (f *fakePrekeysRepo) CreateBatch(ctx context.Context, userID string, publicKeys []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, publicKeys...)
	return nil
}

func (f *fakePrekeysRepo) ConsumeRandom(ctx context.Context, userID string) (*models.OneTimePrekey, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	if f.queue != nil {
		if len(f.queue) == 0 {
			return nil, common.ErrOPKExhausted
		}
		opk := f.queue[0]
		f.queue = f.queue[1:]
		return opk, nil
	}
	return f.consumeOut, nil
}

func (f *fakePrekeysRepo) CountRemaining(ctx context.Context, userID string) (int, error) {
	return f.remaining, nil
}

type fakeFilesRepo struct {
	byID      map[string]*models.FileObject
	createOut *models.FileObject
	createErr error
	listOut   []*models.FileObject
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.FileObject) (*models.FileObject, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	file.ID = "f-new"
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.FileObject, error) {
	if file, ok := f.byID[id]; ok {
		return file, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeFilesRepo) ListForOwner(ctx context.Context, ownerID string) ([]*models.FileObject, error) {
	return f.listOut, nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeSharesRepo struct {
	byID            map[string]*models.FileShare
	byFileRecipient map[string]*models.FileShare // key: fileID + "/" + recipientID

	createOut *models.FileShare
	createErr error

	statusUpdates [][3]string // id, from, to
	updateErr     error
	clearedKeys   []string

	ownerList     []*models.FileShare
	recipientList []*models.FileShare
}

func (f *fakeSharesRepo) Create(ctx context.Context, share *models.FileShare) (*models.FileShare, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	share.ID = "s-new"
	return share, nil
}

func (f *fakeSharesRepo) GetByID(ctx context.Context, id string) (*models.FileShare, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeSharesRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statusUpdates = append(f.statusUpdates, [3]string{id, from, to})
	return nil
}

func (f *fakeSharesRepo) GetForFileAndRecipient(ctx context.Context, fileID, recipientID string) (*models.FileShare, error) {
	if s, ok := f.byFileRecipient[fileID+"/"+recipientID]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeSharesRepo) ClearWrappedKey(ctx context.Context, id string) error {
	f.clearedKeys = append(f.clearedKeys, id)
	return nil
}

func (f *fakeSharesRepo) ListForOwner(ctx context.Context, ownerID string) ([]*models.FileShare, error) {
	return f.ownerList, nil
}

func (f *fakeSharesRepo) ListForRecipient(ctx context.Context, recipientID string) ([]*models.FileShare, error) {
	return f.recipientList, nil
}

type fakeRepoManager struct {
	users   *fakeUsersRepo
	prekeys *fakePrekeysRepo
	files   *fakeFilesRepo
	shares  *fakeSharesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Prekeys(dbx.DBTX) prekeys.Repository          { return m.prekeys }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository              { return m.files }
func (m *fakeRepoManager) Shares(dbx.DBTX) shares.Repository            { return m.shares }

type fakeVaultClient struct {
	stored      []*vault.PrivateKeyBundle
	storeErr    error
	retrieveOut *vault.PrivateKeyBundle
	retrieveErr error
	retrieved   []string
	deleteErr   error
	deleted     []string
	health      vaultclient.HealthStatus
}

func (f *fakeVaultClient) StoreKeyBundle(ctx context.Context, b *vault.PrivateKeyBundle) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, b)
	return nil
}

func (f *fakeVaultClient) RetrieveKeyBundle(ctx context.Context, encryptedID string) (*vault.PrivateKeyBundle, error) {
	f.retrieved = append(f.retrieved, encryptedID)
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.retrieveOut, nil
}

func (f *fakeVaultClient) DeleteKeyBundle(ctx context.Context, encryptedID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, encryptedID)
	return nil
}

func (f *fakeVaultClient) Health(ctx context.Context) vaultclient.HealthStatus {
	return f.health
}
