package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/example/scanventory/internal/application"
	"github.com/example/scanventory/internal/config"
	"github.com/example/scanventory/internal/gateway"
	httptransport "github.com/example/scanventory/internal/http"
	"github.com/example/scanventory/internal/logging"
	"github.com/example/scanventory/internal/persistence/sqlite"
	"github.com/example/scanventory/internal/session"
	"github.com/example/scanventory/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if len(os.Args) > 1 && os.Args[1] == "hash-pin" {
		if err := hashPin(os.Stdin, os.Stdout); err != nil {
			bootLogger.Error("failed to hash operator pin", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLogger.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("station terminated", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, version)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	storage, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return fmt.Errorf("open journal storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()
	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	routes := gateway.DefaultRoutes()
	routes.ReturnToolAlias = cfg.ReturnAliasPath
	backend, err := gateway.New(gateway.Config{
		BaseURL:  cfg.APIBaseURL,
		Token:    cfg.APIToken,
		Timeout:  cfg.APITimeout,
		Location: cfg.Location,
		Routes:   routes,
		Logger:   logger,
		Tracer:   telemetry.Tracer("github.com/example/scanventory/internal/gateway"),
	})
	if err != nil {
		return fmt.Errorf("configure backend client: %w", err)
	}

	pinVerifier, err := application.NewPinVerifier(cfg.OperatorPinHash)
	if err != nil {
		return fmt.Errorf("configure operator pin: %w", err)
	}

	now := time.Now
	journalService := application.NewJournalService(storage, nil, now, logger)
	reservationService := application.NewReservationService(application.ReservationServiceConfig{
		Backend:  backend,
		CacheTTL: cfg.ReservationCacheTTL,
		Location: cfg.Location,
		Now:      now,
		Logger:   logger,
	})
	calendarService := application.NewCalendarService(reservationService, cfg.Location, now, logger)

	station, err := session.NewStation(session.StationConfig{
		Machine: session.MachineConfig{
			Gateway:         backend,
			Location:        cfg.Location,
			Locale:          cfg.Locale,
			ReturnWindow:    cfg.ReturnWindow,
			InfoDisplay:     cfg.InfoDisplay,
			DurationChoices: cfg.DurationChoices,
			Journal:         journalService,
			OnCommitted:     reservationService.Invalidate,
			OnReload:        reservationService.Invalidate,
		},
		KeyGap: cfg.KeyGap,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build station: %w", err)
	}

	if removed, err := journalService.Prune(ctx, cfg.JournalRetention); err != nil {
		logger.Warn("failed to prune journal", "error", err)
	} else if removed > 0 {
		logger.Info("journal pruned on startup", "removed", removed)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Station:      httptransport.NewStationHandler(station, logger),
		Calendar:     httptransport.NewCalendarHandler(calendarService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Journal:      httptransport.NewJournalHandler(journalService, logger),
		Health:       storage,
		PinGuard:     httptransport.RequireOperatorPin(pinVerifier, logger),
		BearerGuard:  httptransport.RequireBearer(now, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stationDone := make(chan error, 1)
	go func() {
		stationDone <- station.Run(runCtx)
	}()

	if cfg.StdinScanner {
		go func() {
			if err := pumpKeys(runCtx, os.Stdin, station, now); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("stdin scanner stopped", "error", err)
			}
		}()
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("station listening", "addr", server.Addr, "version", version, "backend", cfg.APIBaseURL)
	serveErr := server.ListenAndServe()
	cancel()
	if err := <-stationDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("station loop failed", "error", err)
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", serveErr)
	}
	logger.Info("station stopped")
	return nil
}
