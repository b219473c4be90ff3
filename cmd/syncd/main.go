package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/harborline/storefront-sync/api/controllers"
	"github.com/harborline/storefront-sync/api/routes"
	"github.com/harborline/storefront-sync/internal/crosstab"
	"github.com/harborline/storefront-sync/internal/engine"
	"github.com/harborline/storefront-sync/internal/notify"
	"github.com/harborline/storefront-sync/internal/realtime"
	"github.com/harborline/storefront-sync/internal/remote"
	"github.com/harborline/storefront-sync/internal/state"
	pkgAuth "github.com/harborline/storefront-sync/pkg/auth"
	"github.com/harborline/storefront-sync/pkg/config"
	"github.com/harborline/storefront-sync/pkg/db"
	"github.com/harborline/storefront-sync/pkg/logger"
	"github.com/harborline/storefront-sync/pkg/metrics"
	"github.com/harborline/storefront-sync/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "syncd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "syncd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.DependencyPinger{"redis": redisClient}

	var cacheClient *db.Client
	var inboxRepo notify.Repository
	if !cfg.Cache.Disabled {
		cacheClient, err = db.New(ctx, cfg.Cache, logg)
		if err != nil {
			logg.Error(ctx, "failed to open notification cache", err)
			os.Exit(1)
		}
		pingers["cache"] = cacheClient

		inboxRepo, err = notify.NewCacheRepository(cacheClient)
		if err != nil {
			logg.Error(ctx, "failed to build inbox repository", err)
			os.Exit(1)
		}
	}

	credentials := pkgAuth.NewSource()

	remoteClient, err := remote.NewClient(cfg.Remote, credentials)
	if err != nil {
		logg.Error(ctx, "failed to build remote client", err)
		os.Exit(1)
	}

	store := state.NewCartStore()
	messages := state.NewMessageLog()
	orders := state.NewOrderBook()
	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	inbox, err := notify.NewService(ctx, inboxRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to build notification inbox", err)
		os.Exit(1)
	}

	eng, err := engine.New(engine.Params{
		Remote:  remoteClient,
		Store:   store,
		Metrics: syncMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build cart engine", err)
		os.Exit(1)
	}

	tabChannel, err := crosstab.New(redisClient, eng, syncMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to build cross-tab channel", err)
		os.Exit(1)
	}
	eng.SetBroadcaster(tabChannel)

	dispatcher, err := realtime.NewDispatcher(realtime.DispatcherParams{
		Messages: messages,
		Orders:   orders,
		Inbox:    inbox,
		Metrics:  syncMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build event dispatcher", err)
		os.Exit(1)
	}

	rtChannel, err := realtime.NewChannel(cfg.Realtime, credentials, dispatcher, syncMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to build realtime channel", err)
		os.Exit(1)
	}

	go func() {
		if err := rtChannel.Run(ctx); err != nil {
			logg.Error(ctx, "realtime channel stopped", err)
		}
	}()
	go func() {
		if err := tabChannel.Run(ctx); err != nil {
			logg.Error(ctx, "cross-tab listener stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Credentials: credentials,
			Engine:      eng,
			Snapshots:   store,
			Inbox:       inbox,
			Realtime:    rtChannel,
			Messages:    messages,
			Orders:      orders,
			Pingers:     pingers,
		}),
	}

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting sync daemon")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "control server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rtChannel.Disconnect()
	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		cacheClient.Close(),
	)
	if closeErr != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "sync daemon stopped")
}
