package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BotToken       string
	DatabaseURL    string
	WebhookSecret  string
	WebhookBaseURL string
	ServerPort     string
	JWTSecret      string
	AdminIDs       []int64
	RequireInvite  bool
}

func Load() *Config {
	cfg := &Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", "webhook-secret-change-me"),
		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-me"),
		AdminIDs:       parseAdminIDs(os.Getenv("ADMIN_IDS")),
		RequireInvite:  getEnv("REQUIRE_INVITE", "false") == "true",
	}

	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("config: skipping invalid admin id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
