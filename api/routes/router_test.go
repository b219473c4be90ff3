package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-sync/api/controllers"
	"github.com/harborline/storefront-sync/internal/state"
	pkgAuth "github.com/harborline/storefront-sync/pkg/auth"
	"github.com/harborline/storefront-sync/pkg/config"
	"github.com/harborline/storefront-sync/pkg/db/models"
	"github.com/harborline/storefront-sync/pkg/enums"
)

type stubEngine struct{}

func (stubEngine) EnsureLoaded(ctx context.Context) error                     { return nil }
func (stubEngine) Refetch(ctx context.Context) error                          { return nil }
func (stubEngine) Add(ctx context.Context, skuID string, quantity int) error  { return nil }
func (stubEngine) Update(ctx context.Context, itemID string, qty int) error   { return nil }
func (stubEngine) Remove(ctx context.Context, itemID string) error            { return nil }
func (stubEngine) Clear(ctx context.Context) error                            { return nil }

type stubInbox struct{}

func (stubInbox) List(unreadOnly bool) []models.Notification          { return nil }
func (stubInbox) UnreadCount() int                                    { return 0 }
func (stubInbox) MarkRead(ctx context.Context, id uuid.UUID) error    { return nil }
func (stubInbox) MarkAllRead(ctx context.Context)                     {}
func (stubInbox) Clear(ctx context.Context)                           {}

type stubRealtime struct{}

func (stubRealtime) State() enums.ConnectionState { return enums.ConnectionDisconnected }

func testRouter(t *testing.T) (http.Handler, config.AuthConfig) {
	t.Helper()
	authCfg := config.AuthConfig{Secret: "test-secret", Issuer: "storefront-sync"}
	cfg := &config.Config{
		App:  config.AppConfig{Env: config.AppEnvDev, Port: "8080"},
		Auth: authCfg,
	}

	handler := NewRouter(Params{
		Config:      cfg,
		Credentials: pkgAuth.NewSource(),
		Engine:      stubEngine{},
		Snapshots:   state.NewCartStore(),
		Inbox:       stubInbox{},
		Realtime:    stubRealtime{},
		Messages:    state.NewMessageLog(),
		Orders:      state.NewOrderBook(),
		Pingers:     map[string]controllers.DependencyPinger{},
	})
	return handler, authCfg
}

func TestRouterHealthEndpointsArePublic(t *testing.T) {
	handler, _ := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterMetricsEndpointIsPublic(t *testing.T) {
	handler, _ := testRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAPIRequiresCredential(t *testing.T) {
	handler, _ := testRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAPIAcceptsMintedToken(t *testing.T) {
	handler, authCfg := testRouter(t)

	token, err := pkgAuth.MintSessionToken(authCfg, time.Now(), time.Hour,
		pkgAuth.SessionTokenPayload{SessionID: uuid.New()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/realtime/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(enums.ConnectionDisconnected))
}
