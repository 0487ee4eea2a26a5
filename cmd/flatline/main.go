package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	flatlinecmd "github.com/louisbranch/flatline/internal/cmd/flatline"
	entrypoint "github.com/louisbranch/flatline/internal/platform/cmd"
	"github.com/louisbranch/flatline/internal/platform/config"
)

func main() {
	cfg, err := flatlinecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse config: %v", err)
	}
	log.SetPrefix(entrypoint.ServiceFlatline.Prefix())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := flatlinecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
