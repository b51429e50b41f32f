package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/game"
	"github.com/lguibr/ballguard/metrics"
	"github.com/lguibr/ballguard/server"
	"github.com/lguibr/ballguard/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML host configuration")
	listen := flag.String("listen", "", "HTTP listen address (overrides the configuration)")
	flag.Parse()

	cfg := utils.DefaultHostConfig()
	if *configPath != "" {
		loaded, err := utils.LoadConfig(*configPath)
		if err != nil {
			logrus.WithError(err).Fatal("loading configuration")
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("ballguard exited")
	}
}

func run(cfg utils.HostConfig, logger *logrus.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return err
	}

	engine := bollywood.NewEngine(bollywood.WithLogger(logger))
	broadcasterPID := engine.Spawn(bollywood.NewProps(game.NewEventBroadcasterProducer(logger, collector)))

	producer, err := game.NewValidatorActorProducer(game.ValidatorActorConfig{
		Host:        cfg,
		Broadcaster: broadcasterPID,
		Recorder:    collector,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	validatorPID := engine.Spawn(bollywood.NewProps(producer))

	srv := server.New(engine, validatorPID, broadcasterPID, logger)
	mux := http.NewServeMux()
	srv.Routes(mux)
	mux.Handle("/metrics", collector.Handler())

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.ListenAddr,
			"period": cfg.TickPeriod,
		}).Info("ballguard listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			engine.Shutdown(utils.ShutdownTimeout)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown")
	}
	engine.Shutdown(utils.ShutdownTimeout)
	logger.Info("ballguard stopped")
	return nil
}
