package config

import (
	"os"
	"strconv"
)

type Config struct {
	DataDir     string
	OutputCSV   string
	DatabaseURL string
	NatsURL     string
	NatsToken   string
	LogLevel    string
	Port        int
	Serve       bool
}

func Load() Config {
	return Config{
		DataDir:     envStr("MINER_DATA_DIR", "./data"),
		OutputCSV:   envStr("MINER_OUTPUT_CSV", "block_market_transactions.csv"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		Port:        envInt("MINER_PORT", 8760),
		Serve:       envBool("MINER_SERVE", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
