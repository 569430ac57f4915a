package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/meikuraledutech/workflow/builder"
	"github.com/meikuraledutech/workflow/config"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	manager := builder.NewManager(store, cfg.Tools,
		builder.WithGeometry(cfg.Canvas),
		builder.WithLogger(logger),
	)

	app := newApp(manager, store, logger)
	logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend, "tools", len(cfg.Tools))
	log.Fatal(app.Listen(cfg.Server.Addr))
}
