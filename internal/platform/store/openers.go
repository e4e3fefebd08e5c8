package store

import (
	"context"
	"fmt"
	"time"

	"bioreactor/internal/platform/logger"
	chx "bioreactor/internal/platform/store/ch"
	"bioreactor/internal/platform/store/pg"
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// openPG opens the pool and publishes the adapter only once a ping answers
func openPG(ctx context.Context, cfg PGConfig, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		SlowMs:   cfg.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	err = pingWithBackoff(ctx, attempts, timeout, func(ctx context.Context) error {
		return p.Pool.Ping(ctx)
	}, func(i int, err error) {
		log.Warn().Err(err).Int("attempt", i+1).Msg("postgres not ready")
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg CHConfig) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.URL,
		ClientName: cfg.ClientName,
		ClientTag:  cfg.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

// sleep waits d or until ctx ends
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pingWithBackoff retries ping with doubling sleeps capped at backoffCeiling
func pingWithBackoff(ctx context.Context, attempts int, timeout time.Duration, ping func(context.Context) error, onFail func(int, error)) error {
	var last error
	wait := backoffStart
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		last = ping(pctx)
		cancel()
		if last == nil {
			return nil
		}
		if onFail != nil {
			onFail(i, last)
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		wait = min(wait*2, backoffCeiling)
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, last)
}
