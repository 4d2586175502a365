package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hisab/hisab/internal/auth"
	"github.com/hisab/hisab/internal/config"
	"github.com/hisab/hisab/internal/server"
	"github.com/hisab/hisab/internal/service"
	"github.com/hisab/hisab/internal/storage/sqlite"
	"github.com/hisab/hisab/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logging.SetupWithLevelName(cfg.Log.Level)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	handler := server.NewHandler(
		service.NewAuthService(authenticator, jwtManager),
		service.NewGroupService(store),
		service.NewExpenseService(store),
		service.NewLoanService(store),
	)

	srv := server.New(cfg.Addr(), handler, jwtManager)
	if err := srv.Run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
