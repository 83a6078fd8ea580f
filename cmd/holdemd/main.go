package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/pokerroom/holdem/internal/room"
	"github.com/pokerroom/holdem/internal/server"
	"github.com/pokerroom/holdem/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"holdem.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Address to bind to (overrides config)"`
	DB       string `long:"db" help:"Path to the bolt database file (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("holdemd"),
		kong.Description("Multi-table Texas hold'em room server"),
		kong.UsageOnError(),
	)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	if CLI.DB != "" {
		cfg.Store.Path = CLI.DB
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	addr := cfg.ListenAddr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "bolt":
		st, err = store.OpenBolt(cfg.Store.Path)
		if err != nil {
			logger.Error("Failed to open database", "path", cfg.Store.Path, "error", err)
			kctx.Exit(1)
		}
	case "mem":
		st = store.NewMem()
	}
	defer func() { _ = st.Close() }()

	registry := room.NewRegistry(st, logger, quartz.NewReal(), cfg.RoomOptions(), nil)
	if err := registry.Restore(); err != nil {
		logger.Error("Failed to restore rooms", "error", err)
		kctx.Exit(1)
	}

	srv := server.NewServer(addr, registry, logger)

	logger.Info("Starting holdem server",
		"addr", addr,
		"store", cfg.Store.Driver,
		"turnTimeout", cfg.RoomOptions().TurnTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
		// Room records stay in the store so a restart can restore them.
		registry.CloseAll()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}
