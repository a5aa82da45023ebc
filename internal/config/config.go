// Package config はアプリケーション全体の設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Metrics store (BadgerDB)
	MetricsDBPath string

	// Sync
	SyncInterval      time.Duration
	SyncMaxConcurrent int
	SyncItemTimeout   time.Duration
	SyncBatchSize     int

	// Realtime notifier
	PlatformNotifyInterval time.Duration
	ContentNotifyInterval  time.Duration

	// Analytics policy
	ViralDefaultThreshold int64
	AttentionStaleDays    int
	GrowthDefaultDays     int

	// Rate Limit（req/min単位）
	RateLimitGeneral int

	// Server
	ServerPort  string
	MetricsPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variable is not set: DATABASE_URL")
	}

	// Optional fields with defaults
	cfg.MetricsDBPath = getEnvString("METRICS_DB_PATH", "./data/metrics")
	cfg.SyncInterval = getEnvDuration("SYNC_INTERVAL", 5*time.Minute)
	cfg.SyncMaxConcurrent = getEnvInt("SYNC_MAX_CONCURRENT", 10)
	cfg.SyncItemTimeout = getEnvDuration("SYNC_ITEM_TIMEOUT", 10*time.Second)
	cfg.SyncBatchSize = getEnvInt("SYNC_BATCH_SIZE", 200)
	cfg.PlatformNotifyInterval = getEnvDuration("PLATFORM_NOTIFY_INTERVAL", 60*time.Second)
	cfg.ContentNotifyInterval = getEnvDuration("CONTENT_NOTIFY_INTERVAL", 120*time.Second)
	cfg.ViralDefaultThreshold = getEnvInt64("VIRAL_DEFAULT_THRESHOLD", 1000)
	cfg.AttentionStaleDays = getEnvInt("ATTENTION_STALE_DAYS", 7)
	cfg.GrowthDefaultDays = getEnvInt("GROWTH_DEFAULT_DAYS", 30)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
