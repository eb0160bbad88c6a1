// Package main runs the recruiting gateway: the HTTP front door for the
// application lifecycle engine.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/talenthive/recruiting_layer/internal/app/runtime"
	"github.com/talenthive/recruiting_layer/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	rt, err := runtime.New(cfg, nil)
	if err != nil {
		log.Fatalf("build gateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}
