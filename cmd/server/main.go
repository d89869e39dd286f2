package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"avito-watch/internal/app"
	"avito-watch/internal/config"
	"avito-watch/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("logger setup error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("app build error")
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("app stopped with error")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("shutdown complete")
}
