package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fxarb/internal/api/rest"
	"fxarb/internal/arbitrage"
	"fxarb/internal/config"
	"fxarb/internal/feed"
	"fxarb/internal/infra/health"
	"fxarb/internal/infra/http/middleware"
	"fxarb/internal/infra/log"
	"fxarb/internal/infra/metrics"
	"fxarb/internal/infra/runner"
	"fxarb/internal/infra/version"
	"fxarb/internal/report"

	"github.com/prometheus/client_golang/prometheus"
)

const usage = "Usage: fxarb <publisher-host> <publisher-port>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	publisher, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, cfgErr := config.LoadChecked()
	logger := log.NewLogger(cfg)
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("config file skipped, using defaults and environment")
	}
	registry := metrics.Init(logger)

	pubAddr, err := net.ResolveUDPAddr("udp4", publisher)
	if err != nil {
		logger.Error().Err(err).Str("publisher", publisher).Msg("resolve publisher address")
		return 1
	}
	sub, err := feed.Listen(feed.Options{
		ListenAddr:    cfg.Feed.ListenAddr,
		AdvertiseHost: cfg.Feed.AdvertiseHost,
		BufferSize:    cfg.Feed.BufferSize,
		PollInterval:  time.Duration(cfg.Feed.PollIntervalMs) * time.Millisecond,
	})
	if err != nil {
		logger.Error().Err(err).Msg("open feed socket")
		return 1
	}
	defer sub.Close()

	sinks := report.Multi{report.NewLog(logger)}
	if cfg.Report.Kafka.Enabled {
		k := report.NewKafka(report.KafkaOptions{
			Brokers:  cfg.Report.Kafka.Brokers,
			Topic:    cfg.Report.Kafka.Topic,
			ClientID: cfg.Report.Kafka.ClientID,
		}, logger)
		defer k.Close()
		sinks = append(sinks, k)
	}
	eng := arbitrage.New(cfg, sinks, logger)

	var server *http.Server
	if cfg.Server.Addr != "" {
		server = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           adminHandler(cfg, logger, registry, eng),
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http server error")
			}
		}()
	}

	if err := sub.Register(pubAddr); err != nil {
		logger.Error().Err(err).Msg("subscribe to publisher")
		return 1
	}
	logger.Info().
		Str("publisher", pubAddr.String()).
		Str("listen", sub.Addr().String()).
		Str("admin", cfg.Server.Addr).
		Bool("kafka", cfg.Report.Kafka.Enabled).
		Msg("fx arbitrage detector started")

	g := &runner.Group{Logger: logger}
	engineErr := g.Go(ctx, "engine", func(ctx context.Context) error {
		return eng.Run(ctx, sub)
	})
	health.SetReady(true)

	code := 0
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
		<-engineErr
	case err := <-engineErr:
		code = exitCode(err)
		if code != 0 {
			logger.Error().Err(err).Msg("engine stopped")
		}
	}

	health.SetReady(false)
	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
	g.Wait()
	logger.Info().Int("exit_code", code).Msg("shutdown complete")
	return code
}

// parseArgs validates the command line and returns the publisher host:port.
func parseArgs(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %q", args[1])
	}
	return net.JoinHostPort(args[0], strconv.Itoa(port)), nil
}

func exitCode(err error) int {
	if err == nil || errors.Is(err, arbitrage.ErrFeedSilent) {
		return 0
	}
	return 1
}

func adminHandler(cfg config.Config, logger log.Logger, registry *prometheus.Registry, eng *arbitrage.Engine) http.Handler {
	mux := http.NewServeMux()
	// admin endpoints (metrics, pprof) behind IP allowlist gate
	adminCIDRs := middleware.ParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	status := rest.New(eng).Handler()
	mux.Handle("/status", status)
	mux.Handle("/opportunities/last", status)
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}
	return middleware.RequestID(middleware.Logger(logger)(mux))
}
