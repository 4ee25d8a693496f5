package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/board"
	appcfg "github.com/jalvarol/checkers/internal/config"
	"github.com/jalvarol/checkers/internal/gameapi"
	"github.com/jalvarol/checkers/internal/obslog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	opts := obslog.Defaults()
	opts.Console = true
	opts.ToFile = false
	closeLog, err := obslog.Init(obslog.OptionsFromEnv(opts))
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer closeLog()
	logger := obslog.L()

	headers := cfg.Headers
	client := gameapi.NewClient(cfg.ServerURL,
		gameapi.WithHeaderProvider(func() map[string]string { return headers }),
		gameapi.WithTimeout(cfg.RequestTimeout),
		gameapi.WithRetry(cfg.FetchRetry),
		gameapi.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := client.FetchGame(ctx)
	if err != nil {
		logger.Error("probe_game_failed", zap.String("server", cfg.ServerURL), zap.Error(err))
	} else {
		logger.Info("probe_game_ok",
			zap.String("turn", string(s.Turn)),
			zap.String("status", s.Status),
			zap.Int("squares", len(s.ListedPositions())),
			zap.Int("red", s.Pieces(board.Red)),
			zap.Int("black", s.Pieces(board.Black)),
			zap.String("effect", s.Effect.String()),
		)
	}

	out, err := client.CheckWinner(ctx)
	if err != nil {
		logger.Error("probe_check_winner_failed", zap.Error(err))
		return
	}
	winner := string(out.Winner)
	if winner == "" {
		winner = "none"
	}
	logger.Info("probe_check_winner_ok", zap.String("status", out.Status), zap.String("winner", winner))
}
