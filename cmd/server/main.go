package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Projectworkpls/Observer/internal/config"
	httpserver "github.com/Projectworkpls/Observer/internal/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	srv, err := httpserver.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	log.Info().Str("port", cfg.Port).Msg("learning observer listening")
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
