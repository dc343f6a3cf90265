package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wbsync/config"
	"wbsync/internal/wildberries/app"
	"wbsync/pkg/dbconnect/postgres"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config file, environment is used otherwise")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector := postgres.NewPgConnector(cfg.Postgres)
	server := app.NewSyncServer(connector, *cfg, os.Stdout)

	if err := server.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("sync server stopped: %v", err)
	}
}
