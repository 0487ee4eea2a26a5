// Package cmd holds the startup plumbing shared by the flatline binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/flatline/internal/platform/config"
	"github.com/louisbranch/flatline/internal/platform/otel"
)

// Service names a binary for telemetry resources and log prefixes.
type Service string

const (
	ServiceFlatline Service = "flatline"
	ServiceMCP      Service = "mcp"
)

// Prefix is the standard log prefix for the service.
func (s Service) Prefix() string {
	return "[" + strings.ToUpper(string(s)) + "] "
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses flags registered after ParseConfig, so flags win over env.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

type runSettings struct {
	flushTimeout time.Duration
	logf         func(string, ...any)
}

// RunOption tunes RunWithTelemetry.
type RunOption func(*runSettings)

// WithFlushTimeout bounds the exporter flush after run returns.
func WithFlushTimeout(d time.Duration) RunOption {
	return func(s *runSettings) {
		if d > 0 {
			s.flushTimeout = d
		}
	}
}

// WithLogf replaces log.Printf for shutdown warnings.
func WithLogf(logf func(string, ...any)) RunOption {
	return func(s *runSettings) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// RunWithTelemetry installs the tracer provider for service, runs the
// service loop and flushes spans once it returns.
func RunWithTelemetry(ctx context.Context, service Service, run func(context.Context) error, opts ...RunOption) error {
	name := strings.TrimSpace(string(service))
	if name == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	settings := runSettings{flushTimeout: 5 * time.Second, logf: log.Printf}
	for _, opt := range opts {
		opt(&settings)
	}

	shutdown, err := otel.Setup(ctx, name)
	if err != nil {
		return err
	}
	runErr := run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), settings.flushTimeout)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		settings.logf("%s otel shutdown: %v", name, err)
	}
	return runErr
}
