package clientbuilder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jalvarol/checkers/internal/adapter/boardpresenter"
	"github.com/jalvarol/checkers/internal/config"
	"github.com/jalvarol/checkers/internal/gameapi"
	"github.com/jalvarol/checkers/internal/gamesync"
	"github.com/jalvarol/checkers/internal/journal"
	"github.com/jalvarol/checkers/internal/msgcat"
)

const redisPingTimeout = 3 * time.Second

type Deps struct {
	API       *gameapi.Client
	Sync      *gamesync.Client
	Journal   *journal.Store // nil unless REDIS_URL is set
	Formatter *boardpresenter.Formatter
}

// New wires the transport, the optional journal and the sync client. No
// request is sent to the game server.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, extra ...gameapi.Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	opts := []gameapi.Option{
		gameapi.WithTimeout(cfg.RequestTimeout),
		gameapi.WithRetry(cfg.FetchRetry),
		gameapi.WithMaxConnsPerHost(cfg.MaxConns),
		gameapi.WithHeaderProvider(func() map[string]string { return headers }),
		gameapi.WithLogger(logger.Named("gameapi")),
	}
	api := gameapi.NewClient(cfg.ServerURL, append(opts, extra...)...)

	syncOpts := []gamesync.Option{
		gamesync.WithRequestTimeout(cfg.RequestTimeout),
		gamesync.WithLogger(logger.Named("gamesync").With(zap.String("session", cfg.SessionID))),
	}

	var store *journal.Store
	if cfg.JournalEnabled() {
		pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		store, err = journal.Open(pctx, cfg.RedisURL, cfg.SessionID,
			journal.WithLimit(cfg.JournalLimit),
			journal.WithTTL(cfg.JournalTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		syncOpts = append(syncOpts, gamesync.WithRecorder(store))
	}

	return &Deps{
		API:       api,
		Sync:      gamesync.New(api, syncOpts...),
		Journal:   store,
		Formatter: boardpresenter.NewFormatter(cat),
	}, nil
}

func (d *Deps) Close() error {
	if d == nil || d.Journal == nil {
		return nil
	}
	return d.Journal.Close()
}
