package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Terrain   Terrain   `envPrefix:"TERRAIN_"`
		Frame     Frame     `envPrefix:"FRAME_"`
		Dump      Dump      `envPrefix:"DUMP_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
		// StreamInterval is how often /api/v1/stream pushes a stats frame.
		StreamInterval time.Duration `env:"STREAM_INTERVAL" envDefault:"500ms" validate:"gt=0"`
	}

	Server struct {
		Port         string        `env:"PORT,required" validate:"required,numeric"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL,required"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-terrain"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Terrain struct {
		TileResolution   int     `env:"TILE_RESOLUTION" envDefault:"33" validate:"gte=3,lte=1025"`
		CPUCacheCapacity int     `env:"CPU_CACHE_CAPACITY" envDefault:"512" validate:"gt=0"`
		GPUCacheCapacity int     `env:"GPU_CACHE_CAPACITY" envDefault:"256" validate:"gt=0,lte=2048"`
		// MaxLOD 0 keeps every tree at its root tile.
		MaxLOD           uint32  `env:"MAX_LOD" envDefault:"15" validate:"lte=30"`
		SplitFactor      float64 `env:"SPLIT_FACTOR" envDefault:"1.5" validate:"gt=0"`
		Trees            int     `env:"TREES" envDefault:"1" validate:"gt=0"`
		TreeSize         float64 `env:"TREE_SIZE" envDefault:"65536" validate:"gt=0"`
		HeightScale      float64 `env:"HEIGHT_SCALE" envDefault:"2000"`
		Seed             int64   `env:"SEED" envDefault:"1337"`
		Octaves          int     `env:"OCTAVES" envDefault:"8" validate:"gt=0"`
		Frequency        float64 `env:"FREQUENCY" envDefault:"0.0001" validate:"gt=0"`
		Persistence      float64 `env:"PERSISTENCE" envDefault:"0.5"`
		Lacunarity       float64 `env:"LACUNARITY" envDefault:"2"`
		Workers          int     `env:"WORKERS" envDefault:"1" validate:"gt=0"`
	}

	Frame struct {
		Rate           int           `env:"RATE" envDefault:"60" validate:"gt=0"`
		Duration       time.Duration `env:"DURATION" envDefault:"0s"`
		CameraPath     string        `env:"CAMERA_PATH"`
		CameraSpeed    float64       `env:"CAMERA_SPEED" envDefault:"200" validate:"gte=0"`
		CameraAltitude float64       `env:"CAMERA_ALTITUDE" envDefault:"2500"`
	}

	Dump struct {
		Backend    string `env:"BACKEND" envDefault:"none" validate:"oneof=none map filesystem sqlite redis"`
		Directory  string `env:"DIRECTORY" envDefault:"dump"`
		SQLitePath string `env:"SQLITE_PATH" envDefault:"file:dump.db?cache=shared"`
		// Interval is measured in frames; 0 dumps only at shutdown.
		Interval int `env:"INTERVAL" envDefault:"0" validate:"gte=0"`
	}

	Redis struct {
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Terrain.GPUCacheCapacity > c.Terrain.CPUCacheCapacity {
		return fmt.Errorf("invalid config: gpu cache capacity %d exceeds cpu cache capacity %d",
			c.Terrain.GPUCacheCapacity, c.Terrain.CPUCacheCapacity)
	}
	return nil
}
