package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/storefront-sync/api/controllers"
	"github.com/harborline/storefront-sync/api/middleware"
	"github.com/harborline/storefront-sync/internal/state"
	pkgAuth "github.com/harborline/storefront-sync/pkg/auth"
	"github.com/harborline/storefront-sync/pkg/config"
	"github.com/harborline/storefront-sync/pkg/logger"
)

// Params carries everything the control surface serves.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Credentials *pkgAuth.Source
	Engine      controllers.CartEngine
	Snapshots   controllers.SnapshotSource
	Inbox       controllers.Inbox
	Realtime    controllers.ConnectionStateSource
	Messages    *state.MessageLog
	Orders      *state.OrderBook
	Pingers     map[string]controllers.DependencyPinger
}

func NewRouter(params Params) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, params.Credentials, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(params.Engine, params.Snapshots, logg))
			r.Post("/refresh", controllers.CartRefresh(params.Engine, params.Snapshots, logg))
			r.Post("/items", controllers.CartAddItem(params.Engine, params.Snapshots, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(params.Engine, params.Snapshots, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(params.Engine, params.Snapshots, logg))
			r.Delete("/", controllers.CartClear(params.Engine, params.Snapshots, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(params.Inbox, logg))
			r.Post("/{notificationId}/read", controllers.NotificationsMarkRead(params.Inbox, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(params.Inbox, logg))
			r.Delete("/", controllers.NotificationsClear(params.Inbox, logg))
		})

		r.Get("/realtime/status", controllers.RealtimeStatus(params.Realtime, logg))
		r.Get("/messages", controllers.MessagesList(params.Messages, logg))
		r.Get("/orders/{orderId}", controllers.OrderFetch(params.Orders, logg))
	})

	return r
}
