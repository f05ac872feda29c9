package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	KafkaBrokers  []string
	KafkaTopic    string
	GatewayURL    string
	GatewayKey    string
	WebhookSecret string
	Currency      string
	LockLease     time.Duration
	GatewayTO     time.Duration
	ServiceName   string
}

func Load() Config {
	_ = godotenv.Load() // optional .env for local runs

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/bookmarket?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:  splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "order.events"),
		GatewayURL:    getenv("GATEWAY_URL", "https://api.stripe.com"),
		GatewayKey:    getenv("GATEWAY_SECRET_KEY", ""),
		WebhookSecret: getenv("GATEWAY_WEBHOOK_SECRET", ""),
		Currency:      getenv("CURRENCY", "usd"),
		LockLease:     getdur("LOCK_LEASE", 10*time.Second),
		GatewayTO:     getdur("GATEWAY_TIMEOUT", 5*time.Second),
		ServiceName:   getenv("SERVICE_NAME", "booking-market"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
