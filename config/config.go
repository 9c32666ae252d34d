package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	Storage    string // mysql, memory
	MysqlDSN   string
	JWTSecret  string

	// Empty ValkeyAddr keeps realtime delivery local to this process.
	ValkeyAddr    string
	ValkeyChannel string

	MaxMessageLength  int
	HistoryMaxTake    int
	SendRatePerMinute int
	SendBurst         int

	CORSAllowedOrigins string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "err", err)
	}

	return &Config{
		ServerAddr: ":" + getEnv("PORT", "8080"),
		Storage:    getEnv("STORAGE", "mysql"),
		MysqlDSN:   getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/duochat?charset=utf8mb4&parseTime=True&loc=UTC"),
		JWTSecret:  getEnv("JWT_SECRET", "duochat-secret-key-change-in-production"),

		ValkeyAddr:    getEnv("VALKEY_ADDR", ""),
		ValkeyChannel: getEnv("VALKEY_CHANNEL", "duochat:direct-messages"),

		MaxMessageLength:  getEnvInt("MAX_MESSAGE_LENGTH", 4000),
		HistoryMaxTake:    getEnvInt("HISTORY_MAX_TAKE", 200),
		SendRatePerMinute: getEnvInt("SEND_RATE_PER_MINUTE", 60),
		SendBurst:         getEnvInt("SEND_BURST", 10),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
