package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine struct {
		TriesBudget      int `yaml:"tries_budget"`
		DecayIntervalSec int `yaml:"decay_interval_sec"`
	} `yaml:"engine"`
	Score struct {
		Endpoint   string `yaml:"endpoint"`
		APIKey     string `yaml:"api_key"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"score"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	var config Config
	config.Engine.TriesBudget = 5
	config.Engine.DecayIntervalSec = 60
	return &config
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Secrets and per-deployment knobs come from the environment.
	config.Score.Endpoint = getEnv("SCORE_ENDPOINT", config.Score.Endpoint)
	config.Score.APIKey = getEnv("SCORE_API_KEY", config.Score.APIKey)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Engine.TriesBudget = getEnvAsInt("TRIES_BUDGET", config.Engine.TriesBudget)
	config.Engine.DecayIntervalSec = getEnvAsInt("DECAY_INTERVAL_SEC", config.Engine.DecayIntervalSec)

	return config, nil
}

func (c *Config) decayInterval() time.Duration {
	return time.Duration(c.Engine.DecayIntervalSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
