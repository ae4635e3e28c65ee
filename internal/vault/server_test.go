package vault

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/logging"
)

const testToken = "vault-test-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := NewStore(StoreConfig{Path: t.TempDir(), MasterKey: common.GenerateRandByteArray(32)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	ts := httptest.NewServer(NewServer(":0", testToken, store, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServer_StoreRetrieveDelete(t *testing.T) {
	ts := newTestServer(t)
	b := testBundle("u-1")

	resp := doJSON(t, http.MethodPost, ts.URL+"/keys", testToken, b)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/keys/u-1", testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := &PrivateKeyBundle{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(got))
	resp.Body.Close()
	require.Equal(t, b, got)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/keys/u-1", testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/keys/u-1", testToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_RejectsMissingOrWrongToken(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/keys/u-1", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/keys/u-1", "wrong", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/keys", testToken, &PrivateKeyBundle{EncryptedID: "u"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_HealthNeedsNoToken(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, "healthy", body["status"])
}
