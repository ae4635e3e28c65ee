package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/logging"
	"github.com/arkadym/sealbox/internal/recovery"
	"github.com/arkadym/sealbox/internal/server/auth"
	"github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/models"
	filesrepo "github.com/arkadym/sealbox/internal/server/repositories/files"
	prekeysrepo "github.com/arkadym/sealbox/internal/server/repositories/prekeys"
	sharesrepo "github.com/arkadym/sealbox/internal/server/repositories/shares"
	usersrepo "github.com/arkadym/sealbox/internal/server/repositories/users"
	"github.com/arkadym/sealbox/internal/server/services"
	"github.com/arkadym/sealbox/internal/vault"
	"github.com/arkadym/sealbox/internal/vaultclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fixture fakes ---

type stubUsers struct {
	usersrepo.Repository
	byID      map[string]*models.User
	byName    map[string]*models.User
	deletedID string
}

func (f *stubUsers) Delete(ctx context.Context, id string) error {
	f.deletedID = id
	return nil
}

func (f *stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *stubUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type stubPrekeys struct {
	prekeysrepo.Repository
	out *models.OneTimePrekey
	err error
}

func (f *stubPrekeys) ConsumeRandom(ctx context.Context, userID string) (*models.OneTimePrekey, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type stubShares struct {
	sharesrepo.Repository
	byID map[string]*models.FileShare
}

func (f *stubShares) GetByID(ctx context.Context, id string) (*models.FileShare, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *stubShares) UpdateStatus(ctx context.Context, id, from, to string) error { return nil }

type stubRepoManager struct {
	users   *stubUsers
	prekeys *stubPrekeys
	shares  *stubShares
}

func (m *stubRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *stubRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *stubRepoManager) Prekeys(dbx.DBTX) prekeysrepo.Repository      { return m.prekeys }
func (m *stubRepoManager) Files(dbx.DBTX) filesrepo.Repository          { return nil }
func (m *stubRepoManager) Shares(dbx.DBTX) sharesrepo.Repository        { return m.shares }

type stubVault struct {
	health vaultclient.HealthStatus
}

func (f *stubVault) StoreKeyBundle(context.Context, *vault.PrivateKeyBundle) error { return nil }
func (f *stubVault) RetrieveKeyBundle(context.Context, string) (*vault.PrivateKeyBundle, error) {
	return nil, common.ErrNotFound
}
func (f *stubVault) DeleteKeyBundle(context.Context, string) error { return nil }
func (f *stubVault) Health(context.Context) vaultclient.HealthStatus {
	return f.health
}

type fixture struct {
	router *gin.Engine
	cfg    *config.Config
	rm     *stubRepoManager
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	rm := &stubRepoManager{
		users:   &stubUsers{byID: map[string]*models.User{}, byName: map[string]*models.User{}},
		prekeys: &stubPrekeys{err: common.ErrOPKExhausted},
		shares:  &stubShares{byID: map[string]*models.FileShare{}},
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := NewServer(logger, cfg,
		services.NewUserService(db, rm, cfg),
		services.NewBundleService(db, rm, &stubVault{health: vaultclient.HealthHealthy}),
		services.NewShareService(db, rm),
		services.NewTransferService(db, rm, cfg),
		services.NewRecoveryService(db, rm, cfg, &services.LogNotifier{Logger: logger}, logger))

	return &fixture{router: srv.Router(), cfg: cfg, rm: rm, mock: mock}
}

func (f *fixture) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(f.cfg.SecretKey), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// --- tests ---

func TestAuthRequired_NoToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/shares", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication failed"}`, w.Body.String())
}

func TestAuthRequired_GarbageToken(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/shares", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_SuccessAndFailureShapes(t *testing.T) {
	f := newFixture(t)

	hash, err := recovery.HashPassword("correct horse")
	require.NoError(t, err)
	f.rm.users.byName["alice"] = &models.User{ID: "u-1", PasswordHash: hash}

	body, _ := json.Marshal(gin.H{"username": "alice", "password": "correct horse"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	userID, err := auth.GetUserIDFromToken(resp.AccessToken, []byte(f.cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	// Wrong password and unknown user produce byte-identical bodies.
	bad1, _ := json.Marshal(gin.H{"username": "alice", "password": "wrong"})
	bad2, _ := json.Marshal(gin.H{"username": "ghost", "password": "wrong"})
	var bodies []string
	for _, b := range [][]byte{bad1, bad2} {
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		w := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
}

func TestPublicKeys_DegradedWithoutOPK(t *testing.T) {
	f := newFixture(t)
	f.rm.users.byID["u-2"] = &models.User{
		ID: "u-2", IKPublic: "ik", IKSigningPublic: "sign", SPKPublic: "spk", SPKSignature: "sig",
	}

	req := httptest.NewRequest(http.MethodGet, "/users/public-keys/u-2", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "u-1"))
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["degraded"])
	assert.NotContains(t, resp, "opk")
	assert.Equal(t, "spk", resp["spk_public"])
}

func TestPublicKeys_WithOPK(t *testing.T) {
	f := newFixture(t)
	f.rm.users.byID["u-2"] = &models.User{ID: "u-2", IKPublic: "ik", SPKPublic: "spk"}
	f.rm.prekeys.err = nil
	f.rm.prekeys.out = &models.OneTimePrekey{Idx: 9, PublicKey: "opk-9"}

	req := httptest.NewRequest(http.MethodGet, "/users/public-keys/u-2", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "u-1"))
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["degraded"])
	assert.Equal(t, "opk-9", resp["opk"])
	assert.Equal(t, float64(9), resp["opk_index"])
}

func TestRespondShare_TerminalStateConflicts(t *testing.T) {
	f := newFixture(t)
	f.rm.shares.byID["s-1"] = &models.FileShare{
		ID: "s-1", RecipientID: "u-1", Status: models.ShareStatusRevoked,
	}

	body, _ := json.Marshal(gin.H{"accept": true})
	req := httptest.NewRequest(http.MethodPost, "/api/shares/s-1/respond", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "u-1"))
	w := f.do(req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteAccount_RemovesUserAndVaultRecord(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.rm.users.byID["u-1"] = &models.User{ID: "u-1", VaultRef: "bundle-ref-1"}

	req := httptest.NewRequest(http.MethodDelete, "/api/account", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "u-1"))
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", f.rm.users.deletedID)
}

func TestRetrieveBundle_ForeignRefIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.rm.users.byID["u-1"] = &models.User{ID: "u-1", VaultRef: "bundle-ref-1"}
	f.rm.users.byID["u-2"] = &models.User{ID: "u-2", VaultRef: "bundle-ref-2"}

	// u-2 presents u-1's record name.
	req := httptest.NewRequest(http.MethodGet, "/api/keys/bundle/bundle-ref-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "u-2"))
	w := f.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryPIN_UnknownUserAccepted(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(gin.H{"username": "ghost"})
	req := httptest.NewRequest(http.MethodPost, "/api/recovery/pin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHealth_ReportsVaultStatus(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["vault"])
}
