// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
)

// MonolithConfig holds all configuration for monolith mode
type MonolithConfig struct {
	PC28    PC28Config
	Gateway GatewayConfig
}

// LoadMonolithConfig loads all configurations for monolith mode
func LoadMonolithConfig() *MonolithConfig {
	return &MonolithConfig{
		PC28:    *LoadPC28Config(),
		Gateway: *LoadGatewayConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
