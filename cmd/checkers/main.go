package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/adapter/boardpresenter"
	"github.com/jalvarol/checkers/internal/clientbuilder"
	appcfg "github.com/jalvarol/checkers/internal/config"
	"github.com/jalvarol/checkers/internal/obslog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	closeLog, err := obslog.InitFromEnv()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer closeLog()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := clientbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("client_init_failed", zap.Error(err))
		log.Fatalf("client init error: %v", err)
	}
	defer deps.Close()

	presenter := boardpresenter.NewPresenter(os.Stdout, deps.Formatter)
	var history historySource
	if deps.Journal != nil {
		history = deps.Journal
	}
	sh := newShell(deps.Sync, history, presenter, logger)
	sh.attach()

	_ = presenter.Message(deps.Formatter.Welcome(cfg.ServerURL))
	logger.Info("checkers_start",
		zap.String("server", cfg.ServerURL),
		zap.String("session", cfg.SessionID),
		zap.Bool("journal", deps.Journal != nil),
	)
	if err := sh.initialize(ctx, cfg.FetchRetry); err != nil {
		logger.Warn("initialize_failed", zap.Error(err))
	}

	sh.run(ctx, os.Stdin)
	logger.Info("checkers_stop")
}
