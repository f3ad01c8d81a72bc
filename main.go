package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/katabroker/api"
	"github.com/domino14/katabroker/bot"
	"github.com/domino14/katabroker/broker"
	"github.com/domino14/katabroker/config"
	"github.com/domino14/katabroker/engine"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
	EngineStopTimeout       = 5 * time.Second
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Msgf("Loaded config: %v", cfg)

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	eng, err := engine.Start(cfg.EnginePath, cfg.ModelPath, cfg.EngineConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start analysis engine")
	}
	b := broker.New(eng)

	if cfg.NatsURL != "" {
		kbot := bot.NewBot(b, cfg.DefaultVisits, cfg.RequestTimeout)
		if err := kbot.Listen(cfg.NatsURL, cfg.BotChannel); err != nil {
			log.Fatal().Err(err).Msg("could not start NATS listener")
		}
		defer kbot.Close()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Handler(b, cfg.DefaultVisits, cfg.RequestTimeout),
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Error().Msgf("HTTP server Shutdown: %v", err)
		}
		cancel()

		// The engine exits cleanly on stdin EOF; give it a moment before
		// forcing the issue.
		eng.Stop()
		select {
		case <-b.Done():
		case <-time.After(EngineStopTimeout):
			eng.Kill()
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
