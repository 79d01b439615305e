package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/crypto"
	"github.com/iudanet/matswap/internal/storage/boltdb"
)

var testJWTConfig = JWTConfig{
	Secret:   []byte("test-secret-key-for-handlers"),
	TokenTTL: time.Hour,
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(context.Background(), nil, nil)
	require.NoError(t, err)
	return c
}

func newTestGate(t *testing.T) *authgate.Gate {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return authgate.New(store, nil, authgate.Options{
		KDF: crypto.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32},
	})
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// serve прогоняет запрос через mux с Go 1.22 шаблонами путей
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}
