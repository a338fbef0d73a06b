package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	AttemptService struct {
		BaseURL  string `yaml:"base_url"`
		APIToken string `yaml:"api_token"`
	} `yaml:"attempt_service"`
	Storage struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"storage"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets the environment win over the config file, so
// deployments can keep one file and vary per-instance settings.
func applyEnvOverrides(config *Config) {
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.AttemptService.BaseURL = getEnv("ATTEMPT_SERVICE_URL", config.AttemptService.BaseURL)
	config.AttemptService.APIToken = getEnv("ATTEMPT_SERVICE_TOKEN", config.AttemptService.APIToken)
	config.Storage.DataDir = getEnv("EXAMCLOCK_DATA_DIR", config.Storage.DataDir)
}
