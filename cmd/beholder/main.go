package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/nutcracker-tools/beholder/internal/config"
	"github.com/nutcracker-tools/beholder/internal/logging"
	"github.com/nutcracker-tools/beholder/internal/metrics"
	"github.com/nutcracker-tools/beholder/internal/models"
	"github.com/nutcracker-tools/beholder/internal/pidfile"
	"github.com/nutcracker-tools/beholder/internal/proxyconf"
	"github.com/nutcracker-tools/beholder/internal/reconciler"
	"github.com/nutcracker-tools/beholder/internal/restarter"
	"github.com/nutcracker-tools/beholder/internal/sentinel"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "beholder.yml", "path to the beholder config file")
		pidfilePath = flag.String("pidfile", "", "pidfile path; empty disables the single-instance guard")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return 1
	}
	logging.Setup(cfg.Beholder.LogFile, logging.LevelFromString(cfg.Beholder.LogLevel))

	if *pidfilePath != "" {
		pf := pidfile.New(*pidfilePath)
		if pf.Exists() {
			log.Error().Str("pidfile", *pidfilePath).Msg("beholder already running")
			return 1
		}
		if err := pf.Create(); err != nil {
			log.Error().Err(err).Msg("failed to create pidfile")
			return 1
		}
		defer func() {
			if err := pf.Remove(); err != nil {
				log.Warn().Err(err).Msg("failed to remove pidfile")
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proxy := proxyconf.NewManager(cfg.Twemproxy.ConfigFile, log.Logger)
	// surface ambiguous or broken pool definitions at startup, not at
	// event time
	if _, err := proxy.Load(); err != nil {
		log.Error().Err(err).Msg("twemproxy config is not usable")
		return 1
	}

	var m metrics.Metrics = metrics.NewNoop()
	if cfg.Beholder.StatsdAddr != "" {
		hostname, _ := os.Hostname()
		m = metrics.NewStatsd(hostname, cfg.Beholder.StatsdAddr)
	}

	client := sentinel.NewClient(cfg.SentinelAddr())
	coord := restarter.NewCoordinator(
		restarter.ShellRunner{},
		cfg.Twemproxy.RestartCommand,
		cfg.Twemproxy.RestartRetryCount,
		cfg.ConnectRetryInterval(),
	)
	rec := reconciler.New(
		client,
		proxy,
		coord,
		m,
		cfg.Beholder.ConnectRetryCount,
		cfg.ConnectRetryInterval(),
		log.Logger,
	)

	if cfg.Beholder.ProbeAddr != "" {
		serverClose := startProbeServer(cfg.Beholder.ProbeAddr, client)
		defer serverClose()
	}

	log.Info().
		Str("sentinel", cfg.SentinelAddr()).
		Str("proxy_config", cfg.Twemproxy.ConfigFile).
		Msg("beholder started")

	if err := rec.Run(ctx); err != nil {
		log.Error().Err(err).Msg("beholder stopped: sentinel unreachable")
		return 1
	}
	log.Info().Msg("beholder stopped")
	return 0
}

func startProbeServer(addr string, client *sentinel.Client) func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		switch client.State() {
		case models.Subscribed, models.Listening:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	srv := http.Server{
		Handler: mux,
		Addr:    addr,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start probe server")
		}
	}()
	return func() {
		_ = srv.Close()
	}
}
