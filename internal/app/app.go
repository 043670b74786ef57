package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	v1 "github.com/jaennil/guide_helper/backend/terrain/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/terrain/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/terrain/internal/repository/dump"
	"github.com/jaennil/guide_helper/backend/terrain/internal/streaming"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/internal/usecase"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/config"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config",
		"port", cfg.HTTP.Server.Port,
		"terrain", cfg.Terrain,
		"frame", cfg.Frame,
		"dump_backend", cfg.Dump.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	store, err := newDumpStore(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize dump store", "backend", cfg.Dump.Backend, "error", err)
	}
	var dumps *usecase.TileDumpUseCase
	if store != nil {
		defer store.Close()
		dumps = usecase.NewTileDumpUseCase(store, l)
	}

	device := tilebuffer.NewHeadlessDevice()
	driver, err := streaming.New(cfg.Terrain, newSampler(cfg.Terrain), device, l)
	if err != nil {
		l.Fatal("failed to initialize streaming driver", "error", err)
	}

	flyer, err := newFlyer(cfg)
	if err != nil {
		driver.Close()
		l.Fatal("failed to initialize camera", "error", err)
	}

	h := handler.NewHandler(validator.New(), dumps, driver, cfg.HTTP.StreamInterval)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)
	httpServer := http_server.NewServer(cfg.HTTP.Server, router)

	frames := &frameLoop{
		cfg:       cfg.Frame,
		driver:    driver,
		flyer:     flyer,
		dumps:     dumps,
		dumpEvery: cfg.Dump.Interval,
		logger:    l,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Info("starting frame loop", "rate", cfg.Frame.Rate, "duration", cfg.Frame.Duration)
		return frames.run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("received shutdown signal")
		h.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		l.Info("shutting down http server...", "address", httpServer.Addr)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		l.Info("http_server shutdown completed")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errFramesDone) {
		l.Error("application stopped with error", "error", err)
	}

	// The frame loop has returned, so the driver is ours again.
	if dumps != nil {
		if _, err := dumps.DumpAll(driver); err != nil {
			l.Error("final dump failed", "error", err)
		}
	}
	driver.Close()
	l.Info("device released", "uploads", device.Uploads(), "texture_arrays", device.Arrays())

	l.Info("application shutdown completed")
}

func newSampler(cfg config.Terrain) generate.Sampler {
	return generate.NoiseSampler{
		Seed:        cfg.Seed,
		Octaves:     cfg.Octaves,
		Frequency:   cfg.Frequency,
		Persistence: cfg.Persistence,
		Lacunarity:  cfg.Lacunarity,
		HeightScale: cfg.HeightScale,
	}.Sampler()
}

func newFlyer(cfg *config.Config) (*Flyer, error) {
	extent := cfg.Terrain.TreeSize * float64(cfg.Terrain.Trees)
	far := 2 * extent

	if cfg.Frame.CameraPath != "" {
		path, err := LoadCameraPath(cfg.Frame.CameraPath)
		if err != nil {
			return nil, err
		}
		return NewFlyer(path, cfg.Frame.CameraSpeed, far), nil
	}

	center := mgl64.Vec3{extent / 2, 0, cfg.Terrain.TreeSize / 2}
	path := CirclePath(center, cfg.Terrain.TreeSize/4, cfg.Frame.CameraAltitude)
	return NewFlyer(path, cfg.Frame.CameraSpeed, far), nil
}

// newDumpStore returns nil when dumping is disabled.
func newDumpStore(cfg *config.Config, l logger.Logger) (dump.Store, error) {
	switch cfg.Dump.Backend {
	case "", "none":
		return nil, nil
	case "map":
		return dump.NewMapStore(), nil
	case "filesystem":
		return dump.NewFilesystemStore(cfg.Dump.Directory)
	case "sqlite":
		return dump.NewSQLiteStore(cfg.Dump.SQLitePath, l)
	case "redis":
		return dump.NewRedisStore(dump.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown dump backend %q", cfg.Dump.Backend)
	}
}
