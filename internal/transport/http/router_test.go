package http

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walleto-api/internal/config"
	jwtinfra "github.com/walleto-api/internal/infrastructure/jwt"
)

func newRouterUnderTest(t *testing.T) http.Handler {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)}), 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	cfg := &config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         time.Hour,
		AllowedOrigins:    []string{"*"},
	}
	p, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	h, closeFn := NewRouter(cfg, &Deps{JWTProvider: p})
	t.Cleanup(closeFn)
	return h
}

func TestRouter_Surface(t *testing.T) {
	h := newRouterUnderTest(t)

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/v1/health-check/ping", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/v1/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/v1/transactions/summary/monthly", http.StatusUnauthorized},
		{http.MethodPost, "/v1/auth/devices/revoke", http.StatusUnauthorized},
		{http.MethodPost, "/v1/auth/signup", http.StatusNotFound},
		{http.MethodGet, "/v1/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))
		assert.Equal(t, tc.want, rr.Code, tc.method+" "+tc.target)
	}
}

func TestRouter_LegacySigninIsDeprecated(t *testing.T) {
	h := newRouterUnderTest(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code, "empty body reaches the handler")
	assert.Equal(t, "true", rr.Header().Get("Deprecation"))
}
