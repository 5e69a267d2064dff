package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

const sharedFetchTimeout = 30 * time.Second

// Fetcher runs the web-first and cache-first fetch variants shared by the
// peripheral services.
type Fetcher struct {
	// MinimumDelay is the floor applied to every web call. Zero disables it.
	MinimumDelay time.Duration

	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

func NewFetcher(minimumDelay time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{MinimumDelay: minimumDelay, logger: orDiscard(logger), now: time.Now}
}

func (f *Fetcher) fromWeb(ctx context.Context, call func() error) error {
	start := time.Now()
	err := call()
	if f.MinimumDelay <= 0 {
		return err
	}
	if rest := f.MinimumDelay - time.Since(start); rest > 0 {
		t := time.NewTimer(rest)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return err
}

// webFirst calls the gateway and overwrites the cache on success. When the
// gateway fails, a cached value is returned only if it is inside the expiry
// window; otherwise the gateway error is returned unchanged.
func webFirst[T any](ctx context.Context, f *Fetcher, c cache[T], expiry time.Duration, web func(context.Context) (T, error)) (T, error) {
	var v T
	err := f.fromWeb(ctx, func() error {
		var err error
		v, err = web(ctx)
		return err
	})
	if err == nil {
		if cerr := c.clear(ctx); cerr != nil {
			f.logger.Warn("cache_clear_failed", "key", c.key, "err", cerr)
		}
		if cerr := c.put(ctx, v, f.now()); cerr != nil {
			f.logger.Warn("cache_write_failed", "key", c.key, "err", cerr)
		}
		return v, nil
	}
	var zero T
	if ctx.Err() != nil {
		return zero, err
	}
	env, cerr := c.fetch(ctx)
	if cerr != nil {
		f.logger.Warn("cache_read_failed", "key", c.key, "err", cerr)
		return zero, err
	}
	if env == nil || !env.Fresh(f.now(), expiry) {
		return zero, err
	}
	f.logger.Info("served_from_cache", "key", c.key, "fetched_at", env.FetchTimestamp, "web_err", err)
	return env.Value, nil
}

// cacheFirst returns a cached value inside the expiry window without any
// network call, falling through to webFirst otherwise. Concurrent misses on
// the same key share one web call. The shared call is detached from every
// caller's cancellation and bounded by sharedFetchTimeout instead; a caller
// whose context ends stops waiting without affecting the others.
func cacheFirst[T any](ctx context.Context, f *Fetcher, c cache[T], expiry time.Duration, web func(context.Context) (T, error)) (T, error) {
	var zero T
	env, err := c.fetch(ctx)
	if err != nil {
		f.logger.Warn("cache_read_failed", "key", c.key, "err", err)
	} else if env != nil && env.Fresh(f.now(), expiry) {
		return env.Value, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(c.key, func() (any, error) {
		ctx, cancel := context.WithTimeout(shared, sharedFetchTimeout)
		defer cancel()
		return webFirst(ctx, f, c, expiry, web)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
