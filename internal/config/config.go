package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string

	// Remote completion endpoint
	CompletionsBaseURL string

	// Audit side channel
	WebhookURL  string
	IPLookupURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitURL   string
	RabbitQueue string
}

func Load() Config {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chatterbox.db"
	}

	baseURL := os.Getenv("COMPLETIONS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://text.pollinations.ai"
	}

	ipLookup := os.Getenv("IP_LOOKUP_URL")
	if ipLookup == "" {
		ipLookup = "https://api.ipify.org/"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "audit_records"
	}

	return Config{
		ListenAddr: addr,
		DBPath:     dbPath,

		CompletionsBaseURL: baseURL,

		WebhookURL:  os.Getenv("AUDIT_WEBHOOK_URL"),
		IPLookupURL: ipLookup,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,
	}
}
