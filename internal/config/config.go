// Package config loads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults suit a local deployment: the API on 8000, the web
// form on its own fixed port.
const (
	DefaultPort          = 8000
	DefaultWebPort       = 8501
	DefaultServerURL     = "http://localhost:8000"
	DefaultUploadLimitMB = 512
)

type Config struct {
	Port          int
	WebPort       int
	ServerURL     string
	UploadLimitMB int64
	CORSOrigins   []string
}

func Load() *Config {
	port := getEnvInt("KOESCRIBE_PORT", DefaultPort)
	webPort := getEnvInt("KOESCRIBE_WEB_PORT", DefaultWebPort)
	uploadLimit := int64(getEnvInt("KOESCRIBE_UPLOAD_LIMIT_MB", DefaultUploadLimitMB))

	// Comma-separated list; "*" allows every origin.
	corsOrigins := []string{"*"}
	if v := os.Getenv("KOESCRIBE_CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(parts))
		for _, o := range parts {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:          port,
		WebPort:       webPort,
		ServerURL:     getEnv("KOESCRIBE_SERVER_URL", DefaultServerURL),
		UploadLimitMB: uploadLimit,
		CORSOrigins:   corsOrigins,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
