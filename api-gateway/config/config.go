package config

import (
	"os"
	"time"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name        string
	BaseURL     string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port     string
	Services map[string]ServiceConfig
}

// LoadConfig loads the gateway configuration. The inventory API defaults to
// the reconciler service, which serves the inventory endpoints itself when it
// runs with a local stock source.
func LoadConfig() *GatewayConfig {
	reconcilerURL := getEnv("RECONCILER_SERVICE_URL", "http://localhost:8084")

	return &GatewayConfig{
		Port: getEnv("GATEWAY_PORT", "8000"),
		Services: map[string]ServiceConfig{
			"reconciler": {
				Name:        "reconciler-service",
				BaseURL:     reconcilerURL,
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
			"inventory": {
				Name:        "inventory-api",
				BaseURL:     getEnv("INVENTORY_SERVICE_URL", reconcilerURL),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
