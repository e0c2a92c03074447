package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	"morpheus/internal/core/services"
	httphandlers "morpheus/internal/handlers/http"
	"morpheus/internal/infrastructure/console"
	"morpheus/internal/infrastructure/distributed"
	"morpheus/internal/infrastructure/middleware"
	"morpheus/internal/infrastructure/monitoring"
	repositories "morpheus/internal/infrastructure/repositories"
	wstransport "morpheus/internal/infrastructure/signal"
	"morpheus/internal/infrastructure/store"
	"morpheus/pkg/config"
	"morpheus/pkg/logger"
	"morpheus/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Sugar().Fatalw("failed to load configuration", "path", *configPath, "error", err)
	}

	var zapLogger *zap.Logger
	if cfg.Logging.Format == "console" {
		zapLogger = logger.NewDevelopment(cfg.Logging.Level)
	} else {
		zapLogger = logger.New(cfg.Logging.Level)
	}
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	tp, err := tracing.Init(cfg.Tracing)
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, tokenTTL)
	user, err := authService.CurrentUser(cfg.Auth.Token)
	if err != nil {
		log.Fatalw("invalid session token", "error", err)
	}

	repoFactory := repositories.NewRepositoryFactory(cfg, log)
	lastRooms := repoFactory.CreateLastRoomRepository()

	transport, err := newTransport(cfg, repoFactory, log)
	if err != nil {
		log.Fatalw("failed to create transport", "error", err)
	}

	registry := prometheus.NewRegistry()
	var metrics ports.Metrics = ports.NopMetrics{}
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector(registry)
	}

	ui := console.NewUI(log, console.WithAudioElements(cfg.Session.AudioCue.ElementID))
	officeStore := store.NewOfficeStore()

	orch := services.NewOrchestrator(services.Capabilities{
		Transport: transport,
		State:     officeStore,
		LastRooms: lastRooms,
		Dialogs:   ui,
		Banners:   ui,
		Notifier:  ui,
		Navigator: ui,
		Audio:     ui,
	}, services.Options{
		EnterRoomDelay:        cfg.Session.EnterRoomDelay,
		NotificationDebounce:  cfg.Session.NotificationDebounce,
		PresenceNotifications: cfg.Session.PresenceNotifications,
		AudioCue: services.AudioCueOptions{
			ElementID: cfg.Session.AudioCue.ElementID,
			Volume:    cfg.Session.AudioCue.Volume,
		},
	}, log, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := officeStore.Subscribe(orch.Update)
	go restoreLastRoom(ctx, officeStore, lastRooms, user.ID, log)
	officeStore.Login(user)

	var srv *http.Server
	if cfg.Debug.Enabled {
		health := monitoring.NewHealthChecker()
		health.AddSessionCheck(func() bool { return officeStore.Snapshot().LoggedIn }, orch.Active)
		if client := repoFactory.RedisClient(); client != nil {
			health.AddRedisCheck(client, 2*time.Second)
		}

		srv = newDebugServer(cfg, officeStore, ui, health, registry, authService, log)
		go func() {
			log.Infow("starting debug server", "address", cfg.Debug.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("debug server failed", "error", err)
			}
		}()
	}

	log.Infow("morpheus client started", "user_id", user.ID, "transport", cfg.Transport.Kind)
	<-ctx.Done()
	log.Info("shutting down morpheus client...")

	unsubscribe()
	orch.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("error during debug server shutdown", "error", err)
		}
	}
	if err := repoFactory.Close(); err != nil {
		log.Errorw("error closing repository factory", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Info("morpheus client stopped")
}

func newTransport(cfg *config.Config, factory *repositories.RepositoryFactory, log *zap.SugaredLogger) (ports.Transport, error) {
	switch cfg.Transport.Kind {
	case config.TransportRedis:
		client := factory.RedisClient()
		if client == nil {
			return nil, errors.New("redis transport selected but redis is unavailable")
		}
		return distributed.NewRedisTransport(client, distributed.Options{
			Channel:           cfg.Redis.Channel,
			EventBuffer:       cfg.Signal.EventBuffer,
			MessagesPerSecond: cfg.Signal.Outbound.MessagesPerSecond,
			Burst:             cfg.Signal.Outbound.Burst,
		}, log), nil
	default:
		return wstransport.NewWebSocketTransport(wstransport.Options{
			URL:               cfg.Signal.URL,
			Token:             cfg.Auth.Token,
			DialTimeout:       cfg.Signal.DialTimeout,
			PingInterval:      cfg.Signal.PingInterval,
			PongTimeout:       cfg.Signal.PongTimeout,
			WriteTimeout:      cfg.Signal.WriteTimeout,
			EventBuffer:       cfg.Signal.EventBuffer,
			Dial:              cfg.Signal.Dial,
			Breaker:           cfg.Signal.DialBreaker,
			MessagesPerSecond: cfg.Signal.Outbound.MessagesPerSecond,
			Burst:             cfg.Signal.Outbound.Burst,
		}, log), nil
	}
}

// restoreLastRoom selects the user's last room once the room list arrives.
func restoreLastRoom(ctx context.Context, officeStore *store.OfficeStore, repo ports.LastRoomRepository, userID domain.UserID, log *zap.SugaredLogger) {
	ready := make(chan struct{}, 1)
	unsubscribe := officeStore.Subscribe(func(snap domain.Snapshot) {
		if snap.LoggedIn && len(snap.Rooms) > 0 {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	select {
	case <-ctx.Done():
		return
	case <-ready:
	}

	roomID, err := repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrLastRoomNotFound) {
			log.Warnw("failed to load last room", "user_id", userID, "error", err)
		}
		return
	}

	snap := officeStore.Snapshot()
	if snap.CurrentRoom.ID != "" {
		return
	}
	room, ok := snap.FindRoom(roomID)
	if !ok {
		log.Debugw("last room no longer exists", "room_id", roomID)
		return
	}
	officeStore.SetCurrentRoom(room)
	log.Infow("restored last room", "room_id", room.ID)
}

func newDebugServer(cfg *config.Config, state httphandlers.StateReader, banners httphandlers.BannerBoard, health *monitoring.HealthChecker, registry *prometheus.Registry, authService *services.AuthService, log *zap.SugaredLogger) *http.Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.TracingMiddleware(),
		middleware.NewHTTPRateLimitMiddleware(middleware.RateLimitConfig{
			Enabled:           cfg.Debug.RateLimit.Enabled,
			RequestsPerSecond: cfg.Debug.RateLimit.RequestsPerSecond,
			Burst:             cfg.Debug.RateLimit.Burst,
		}),
		middleware.ErrorHandlerMiddleware(log),
	)

	var routes gin.IRoutes = router
	if cfg.Debug.RequireAuth {
		routes = router.Group("/", middleware.AuthMiddleware(authService))
	}

	httphandlers.NewDebugHandler(state, health, banners).SetupRoutes(routes)
	if cfg.Monitoring.PrometheusEnabled {
		routes.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return &http.Server{
		Addr:              cfg.Debug.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
