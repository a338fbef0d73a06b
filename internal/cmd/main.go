package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("could not load .env file")
	}

	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	configPath := getEnv("EXAMCLOCK_CONFIG", "config.yaml")
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	applyEnvOverrides(config)

	if config.AttemptService.BaseURL == "" {
		log.Fatal().Msg("attempt service base URL is required")
	}
	if config.Storage.DataDir == "" {
		config.Storage.DataDir = "data/timers"
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	services, err := setupServices(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	server := setupServer(services, config.Server.Port)
	log.Info().Str("addr", server.Addr).Msg("examclock gateway listening")

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
