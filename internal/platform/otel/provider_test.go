package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/flatline/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("FLATLINE_OTEL_ENDPOINT", "")
	t.Setenv("FLATLINE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "flatline-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	t.Setenv("FLATLINE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("FLATLINE_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "flatline-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	// Non-routable; nothing is exported before shutdown.
	t.Setenv("FLATLINE_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("FLATLINE_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "flatline-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.Tracer("flatline-test") == nil {
		t.Fatal("expected tracer")
	}
}
