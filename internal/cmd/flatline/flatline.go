// Package flatline parses game server flags and starts the HTTP and gRPC APIs.
package flatline

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/flatline/internal/platform/cmd"
	server "github.com/louisbranch/flatline/internal/services/game/app"
)

// Config holds game server configuration.
type Config struct {
	HTTPAddr    string        `env:"FLATLINE_HTTP_ADDR"     envDefault:":8080"`
	GRPCAddr    string        `env:"FLATLINE_GRPC_ADDR"     envDefault:":8082"`
	Storage     string        `env:"FLATLINE_STORAGE"       envDefault:"bbolt"`
	DBPath      string        `env:"FLATLINE_DB_PATH"       envDefault:"data/flatline.db"`
	LogCapacity int           `env:"FLATLINE_LOG_CAPACITY"  envDefault:"200"`
	ActionDelay time.Duration `env:"FLATLINE_ACTION_DELAY"  envDefault:"350ms"`
	Seed        uint64        `env:"FLATLINE_SEED"          envDefault:"0"`
	BalancePath string        `env:"FLATLINE_BALANCE_PATH"`
	SessionKey  string        `env:"FLATLINE_SESSION_KEY"`
	RateLimit   float64       `env:"FLATLINE_RATE_LIMIT"    envDefault:"5"`
	RateBurst   int           `env:"FLATLINE_RATE_BURST"    envDefault:"10"`
	Origins     []string      `env:"FLATLINE_WS_ORIGINS"    envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC API listen address")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Snapshot storage: bbolt, sqlite or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Snapshot database path")
	fs.IntVar(&cfg.LogCapacity, "log-capacity", cfg.LogCapacity, "Number of log entries kept in memory")
	fs.DurationVar(&cfg.ActionDelay, "action-delay", cfg.ActionDelay, "Simulated processing time per action (negative disables)")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed; 0 draws one from crypto/rand")
	fs.StringVar(&cfg.BalancePath, "balance", cfg.BalancePath, "Lua balance file overriding the built-in tuning")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage)) {
	case server.StorageBBolt, server.StorageSQLite, server.StorageMemory:
	default:
		return fmt.Errorf("storage %q is not supported", c.Storage)
	}
	if c.LogCapacity <= 0 {
		return fmt.Errorf("log capacity must be positive, got %d", c.LogCapacity)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}
	return nil
}

// Run starts the game server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFlatline, func(ctx context.Context) error {
		return server.Run(ctx, server.Options{
			HTTPAddr:    cfg.HTTPAddr,
			GRPCAddr:    cfg.GRPCAddr,
			Storage:     cfg.Storage,
			DBPath:      cfg.DBPath,
			LogCapacity: cfg.LogCapacity,
			ActionDelay: cfg.ActionDelay,
			Seed:        cfg.Seed,
			BalancePath: cfg.BalancePath,
			SessionKey:  cfg.SessionKey,
			RateLimit:   cfg.RateLimit,
			RateBurst:   cfg.RateBurst,
			Origins:     cfg.Origins,
		})
	})
}
