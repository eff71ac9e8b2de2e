package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/holiman/uint256"

	"grumblechain/config"
	"grumblechain/core"
	"grumblechain/core/state"
	"grumblechain/native/token"
	"grumblechain/observability/logging"
	"grumblechain/rpc"
	"grumblechain/storage"
)

const (
	envName       = "GRUMBLE_ENV"
	adminTokenEnv = "GRUMBLE_ADMIN_TOKEN"
	decimals      = 18
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envName))
	logger := logging.Setup("grumbled", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", slog.Any("error", err))
		os.Exit(1)
	}
	owner, err := config.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		logger.Error("Invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	treasury, err := config.ParseAddress(cfg.TreasuryAddress)
	if err != nil {
		logger.Error("Invalid treasury address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	mgr := state.NewManager(db)
	ledger := token.NewLedger(mgr, decimals)

	levelCosts := make([]*uint256.Int, 0, len(cfg.LevelCosts))
	for _, cost := range cfg.LevelCosts {
		levelCosts = append(levelCosts, uint256.NewInt(cost))
	}
	node, err := core.NewNode(mgr, ledger, core.Params{
		Owner:          owner,
		Treasury:       treasury,
		RewardAmount:   uint256.NewInt(cfg.RewardAmount),
		DailyRewardCap: cfg.DailyRewardCap,
		RenameCost:     uint256.NewInt(cfg.RenameCost),
		LevelCosts:     levelCosts,
	})
	if err != nil {
		logger.Error("Failed to boot node", slog.Any("error", err))
		os.Exit(1)
	}

	adminToken := strings.TrimSpace(os.Getenv(adminTokenEnv))
	if adminToken == "" {
		adminToken = cfg.AdminToken
	}
	if adminToken == "" {
		logger.Warn("No admin token configured; administrative RPC methods are disabled")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           rpc.NewServer(node, adminToken).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting JSON-RPC server", slog.String("addr", cfg.ListenAddress))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
