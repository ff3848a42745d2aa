package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"concretestrength/config"
	shttp "concretestrength/http"
	"concretestrength/logging"
	"concretestrength/ml"
	"concretestrength/monitoring"
	"concretestrength/prediction"
	"concretestrength/ui"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// 日志尚未初始化
		zap.NewExample().Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	// 2. Initialize logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync()

	// 3. Load model once, before serving
	metrics := monitoring.NewMetrics()
	provider := ml.NewProvider(cfg.Model.Type, cfg.Model.Path, ml.WithLoadHook(func(info ml.ArtifactInfo, err error) {
		metrics.ObserveModelLoad(err)
		if err == nil {
			logger.Info("model loaded",
				zap.String("type", info.Type),
				zap.String("path", info.Path),
				zap.String("compression", info.Compression),
				zap.String("fingerprint", info.Fingerprint))
		}
	}))
	model, err := provider.Model()
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}

	// 4. Build presentation and prediction services
	localizer, err := ui.NewLocalizer(cfg.UI.DefaultLanguage, 64)
	if err != nil {
		logger.Fatal("failed to initialize localizer", zap.Error(err))
	}
	renderer, err := ui.NewRenderer(localizer)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	service := prediction.NewService(model,
		prediction.WithLogger(logger.Named("prediction")),
		prediction.WithMetrics(metrics))

	// 5. Start HTTP server
	serverConfig := shttp.DefaultServerConfig()
	serverConfig.Port = cfg.Http.Port
	serverConfig.Timeout = cfg.Http.Timeout
	if len(cfg.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = cfg.Http.AllowedOrigins
	}
	server := shttp.NewServer(serverConfig, shttp.Dependencies{
		Service:  service,
		Provider: provider,
		Renderer: renderer,
		Metrics:  metrics,
		Logger:   logger.Named("http"),
	})

	// 6. Run until a signal arrives or a component fails
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	if cfg.Model.Watch {
		g.Go(func() error {
			if err := ml.WatchArtifact(ctx, cfg.Model.Path, logger.Named("model"), nil); err != nil {
				logger.Warn("model artifact watch stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return server.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("exiting")
}
