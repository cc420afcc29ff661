package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GlobalStore/internal/api"
	"GlobalStore/internal/config"
	"GlobalStore/internal/storage"
	"GlobalStore/internal/storefront"
	"GlobalStore/pkg/kit"
)

const (
	service      = "storefront"
	startTimeout = 10 * time.Second
	closeTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	store, err := storage.Open(startCtx, storage.Options{
		Driver:    cfg.Storage.Driver,
		Path:      cfg.Storage.Path,
		RedisURL:  cfg.Storage.RedisURL,
		DSN:       cfg.Storage.DSN,
		Namespace: cfg.Storage.Namespace,
	})
	if err != nil {
		return err
	}
	log.Info("storage opened", zap.String("driver", cfg.Storage.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := storefront.New(cfg, storefront.Deps{Store: store, Log: log, Registry: reg})
	if err := app.Open(startCtx); err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := app.Close(cctx); err != nil {
			log.Error("close failed", zap.Error(err))
		}
	}()

	h, err := api.NewHandler(&api.Server{
		App:         app,
		Log:         log,
		ImageOrigin: cfg.Upstream.CatalogURL,
	}, api.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.HTTP.MetricsEnabled,
		MetricsToken:   cfg.HTTP.MetricsToken,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Warm(gctx)
		return nil
	})
	g.Go(func() error {
		return kit.RunHTTPServer(gctx, cfg.HTTP.Addr, h, log)
	})
	return g.Wait()
}
