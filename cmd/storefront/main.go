package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/env"
	"storefront/internal/infrastructure/api"
	"storefront/internal/infrastructure/events"
	"storefront/internal/infrastructure/repo"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/state"
	"storefront/internal/usecase"
)

func main() {
	if err := env.Load(".env", ".env.local"); err != nil {
		slog.Error("env_load_failed", "err", err)
	}
	envDefaults := config.EnvDefaults()

	envName := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	apiBase := flag.String("api-base-url", envDefaults.APIBaseURL, "")
	businessID := flag.Int("business-id", envDefaults.BusinessID, "")
	databaseURL := flag.String("database-url", envDefaults.DatabaseURL, "")
	amqpURL := flag.String("amqp-url", envDefaults.AMQPURL, "")
	logJSON := flag.Bool("log-json", envDefaults.LogJSON, "")
	logLevel := flag.String("log-level", "info", "")
	mentionMe := flag.Bool("mention-me", envDefaults.MentionMeEnabled, "")

	flag.Parse()

	cfg := envDefaults
	cfg.Env = *envName
	cfg.Port = *port
	cfg.APIBaseURL = *apiBase
	cfg.BusinessID = *businessID
	cfg.DatabaseURL = *databaseURL
	cfg.AMQPURL = *amqpURL
	cfg.LogJSON = *logJSON
	cfg.MentionMeEnabled = *mentionMe

	log := logger.New("storefront", cfg.LogJSON, logger.ParseLevel(*logLevel))
	if err := run(cfg, log); err != nil {
		log.Error("storefront_exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]func(context.Context) error{}
	var cache usecase.CacheStore = repo.NewMemoryCache()
	if cfg.DatabaseURL != "" {
		pg, err := repo.NewPostgresCache(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		cache = pg
		checks["cache"] = pg.Ping
	}

	var notifier usecase.OrderNotifier = events.LogNotifier{Logger: log}
	if cfg.AMQPURL != "" {
		broker, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer broker.Close()
		checks["broker"] = func(context.Context) error { return broker.Ping() }
		notifier = &events.OrderNotifier{Publisher: broker, Source: "storefront"}
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.BusinessID, cfg.HTTPTimeout, log)
	st := state.NewStore(state.Snapshot{})
	defer st.Close()
	fetcher := usecase.NewFetcher(cfg.WebDelay(), log)

	baskets := usecase.NewBasketService(client, cache, st, log)
	baskets.Expiry = cfg.BasketExpiry
	svc := server.Services{
		Baskets: baskets,
		Checkout: usecase.NewCheckoutService(client, baskets, cache, st, notifier, usecase.CheckoutOptions{
			MentionMeEnabled:        cfg.MentionMeEnabled,
			LastDeliveryOrderExpiry: cfg.LastDeliveryOrderExpiry,
		}, log),
		Stores:    usecase.NewStoreService(client, cache, st, fetcher, cfg.StoreSearchExpiry, log),
		Menu:      &usecase.MenuService{Gateway: client, Cache: cache, State: st, Fetcher: fetcher, Expiry: cfg.MenuExpiry},
		Members:   usecase.NewMemberService(client, client.Session, cache, st, fetcher, cfg.MemberProfileExpiry, log),
		Addresses: &usecase.AddressService{Gateway: client, Cache: cache, Fetcher: fetcher, Expiry: cfg.AddressExpiry},
		State:     st,
		Checks:    checks,
	}
	if err := baskets.RestoreBasket(ctx); err != nil {
		log.Warn("basket_restore_failed", "err", err)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           server.New(cfg, svc, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("storefront_listening", "addr", srv.Addr, "env", cfg.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("storefront_shutdown")
	return srv.Shutdown(shutdown)
}
