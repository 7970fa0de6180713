// Package config provides application configuration loaded from environment
// variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all client configuration.
type Config struct {
	// APIURL is the base URL of the courier REST backend.
	APIURL string
	// SocketURL is the realtime channel URL. When unset it is derived from
	// APIURL by switching the scheme to ws and appending /ws.
	SocketURL string
	// HTTPTimeout bounds every REST request.
	HTTPTimeout time.Duration
	// ExportDir is where report downloads are written.
	ExportDir string
}

// Load reads configuration from environment variables, with defaults for
// local development against a backend on port 3000.
func Load() *Config {
	apiURL := getEnv("COURIER_API_URL", "http://localhost:3000")
	return &Config{
		APIURL:      apiURL,
		SocketURL:   getEnv("COURIER_SOCKET_URL", deriveSocketURL(apiURL)),
		HTTPTimeout: time.Duration(getEnvInt("COURIER_HTTP_TIMEOUT", 15)) * time.Second,
		ExportDir:   getEnv("COURIER_EXPORT_DIR", "."),
	}
}

// deriveSocketURL maps an http(s) base URL to the conventional websocket
// endpoint on the same host.
func deriveSocketURL(apiURL string) string {
	socket := apiURL
	switch {
	case strings.HasPrefix(socket, "https://"):
		socket = "wss://" + strings.TrimPrefix(socket, "https://")
	case strings.HasPrefix(socket, "http://"):
		socket = "ws://" + strings.TrimPrefix(socket, "http://")
	}
	return strings.TrimSuffix(socket, "/") + "/ws"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
