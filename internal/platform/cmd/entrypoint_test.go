package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"
)

type entrypointConfig struct {
	Addr string `env:"FLATLINE_TEST_ENTRY_ADDR" envDefault:":8080"`
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FLATLINE_TEST_ENTRY_ADDR", ":9000")
	var cfg entrypointConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("addr = %q, want env value", cfg.Addr)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "addr")
	if err := ParseArgs(fs, []string{"-addr", ":7000"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("addr = %q, want flag value", cfg.Addr)
	}
}

func TestParseRequiresTargets(t *testing.T) {
	if err := ParseConfig[entrypointConfig](nil); err == nil {
		t.Fatal("expected error for nil target")
	}
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestServicePrefix(t *testing.T) {
	if got := ServiceMCP.Prefix(); got != "[MCP] " {
		t.Fatalf("prefix = %q", got)
	}
	if got := ServiceFlatline.Prefix(); got != "[FLATLINE] " {
		t.Fatalf("prefix = %q", got)
	}
}

func TestRunWithTelemetryValidatesInput(t *testing.T) {
	ctx := context.Background()
	if err := RunWithTelemetry(ctx, " ", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for blank service")
	}
	if err := RunWithTelemetry(ctx, ServiceFlatline, nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("FLATLINE_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	var warnings int
	err := RunWithTelemetry(context.Background(), ServiceFlatline,
		func(context.Context) error { return want },
		WithFlushTimeout(time.Second),
		WithLogf(func(string, ...any) { warnings++ }),
	)
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
	if warnings != 0 {
		t.Fatalf("unexpected shutdown warnings: %d", warnings)
	}
}
