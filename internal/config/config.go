package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	DataDir         string
	DatabasePath    string
	SeedDir         string
	SiteName        string
	SessionSecret   string
	GinMode         string
	LogLevel        string
	LogFormat       string
	MetricsPath     string
	TracingEndpoint string
	TracingInsecure bool
	ServiceName     string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8080")

	dataDir := env("WIKI_DATA_DIR", "data")
	databasePath := env("WIKI_DATABASE_PATH", filepath.Join(dataDir, "wiki.db"))

	return AppConfig{
		ListenAddr:      env("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		DataDir:         dataDir,
		DatabasePath:    databasePath,
		SeedDir:         env("WIKI_SEED_DIR", "seed-pages"),
		SiteName:        env("WIKI_SITE_NAME", "Cluster Lite Wiki"),
		SessionSecret:   env("SESSION_SECRET", "clusterwiki-dev-secret"),
		GinMode:         env("GIN_MODE", "release"),
		LogLevel:        env("LOG_LEVEL", "info"),
		LogFormat:       env("LOG_FORMAT", "json"),
		MetricsPath:     env("METRICS_PATH", "/metrics"),
		TracingEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracingInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:     env("OTEL_SERVICE_NAME", "clusterwiki"),
	}
}

// TracingEnabled 表示是否配置了 span 导出地址。
func (c AppConfig) TracingEnabled() bool {
	return c.TracingEndpoint != ""
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
