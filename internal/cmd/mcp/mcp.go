// Package mcp wires the MCP bridge binary: env and flag parsing plus the
// telemetry-wrapped run loop.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	entrypoint "github.com/louisbranch/flatline/internal/platform/cmd"
	mcpservice "github.com/louisbranch/flatline/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	GameAddr  string `env:"FLATLINE_MCP_GAME_ADDR"  envDefault:"localhost:8082"`
	HTTPAddr  string `env:"FLATLINE_MCP_HTTP_ADDR"  envDefault:"localhost:8081"`
	Transport string `env:"FLATLINE_MCP_TRANSPORT"  envDefault:"stdio"`
}

// ParseConfig reads FLATLINE_MCP_* and then flags, which take precedence.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GameAddr, "addr", cfg.GameAddr, "flatline gRPC address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "listen address for the http transport")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "stdio or http")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch mcpservice.TransportKind(c.Transport) {
	case mcpservice.TransportStdio:
	case mcpservice.TransportHTTP:
		if strings.TrimSpace(c.HTTPAddr) == "" {
			return fmt.Errorf("http transport needs -http-addr")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if strings.TrimSpace(c.GameAddr) == "" {
		return fmt.Errorf("game address is required")
	}
	return nil
}

// Run dials the game server and serves MCP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			GRPCAddr:  cfg.GameAddr,
			HTTPAddr:  cfg.HTTPAddr,
			Transport: mcpservice.TransportKind(cfg.Transport),
			Logger:    log.Default(),
		})
	})
}
