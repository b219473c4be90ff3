package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/harborline/storefront-sync/pkg/auth"
	"github.com/harborline/storefront-sync/pkg/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{Secret: "test-secret", Issuer: "storefront-sync"}
}

func mintTestToken(t *testing.T, cfg config.AuthConfig, sessionID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	token, err := pkgAuth.MintSessionToken(cfg, time.Now(), ttl, pkgAuth.SessionTokenPayload{SessionID: sessionID})
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	handler := Auth(testAuthConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testAuthConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	token, err := pkgAuth.MintSessionToken(cfg, time.Now().Add(-2*time.Hour), time.Hour,
		pkgAuth.SessionTokenPayload{SessionID: uuid.New()})
	require.NoError(t, err)

	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSeedsCredentialSourceAndContext(t *testing.T) {
	cfg := testAuthConfig()
	sessionID := uuid.New()
	token := mintTestToken(t, cfg, sessionID, time.Hour)
	source := pkgAuth.NewSource()

	var gotSession string
	handler := Auth(cfg, source, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sessionID.String(), gotSession)

	// The verified credential is now available to the remote client and the
	// realtime channel.
	assert.Equal(t, token, source.Token())
	assert.True(t, source.Valid(time.Now()))
}
