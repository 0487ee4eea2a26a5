package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/louisbranch/flatline/internal/cmd/mcp"
	entrypoint "github.com/louisbranch/flatline/internal/platform/cmd"
	"github.com/louisbranch/flatline/internal/platform/config"
)

// main bridges an MCP client to a running flatline server.
func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse config: %v", err)
	}
	// stdout carries the stdio transport, so logs stay on stderr.
	log.SetOutput(os.Stderr)
	log.SetPrefix(entrypoint.ServiceMCP.Prefix())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("mcp bridge: %v", err)
	}
}
