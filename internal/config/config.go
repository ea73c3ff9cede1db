package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LabelPattern     string
	SlackWebhookURL  string
	SlackChannel     string
	SlackIconEmoji   string
	TelegramToken    string
	TelegramChatID   int64
	TelegramThreadID int64
	Port             string
	SendTimeout      time.Duration
}

// Load reads the environment, after applying the given env files. With no files it tries
// ./.env and ignores its absence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	var missing []string
	if os.Getenv("LABEL_PATTERN") == "" {
		missing = append(missing, "LABEL_PATTERN")
	}
	if os.Getenv("SLACK_WEBHOOK_URL") == "" && os.Getenv("TELEGRAM_TOKEN") == "" {
		missing = append(missing, "SLACK_WEBHOOK_URL or TELEGRAM_TOKEN")
	}
	if os.Getenv("TELEGRAM_TOKEN") != "" && os.Getenv("TELEGRAM_CHAT_ID") == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	chatID, err := getInt64("TELEGRAM_CHAT_ID")
	if err != nil {
		return nil, err
	}
	threadID, err := getInt64("TELEGRAM_THREAD_ID")
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getEnv("SEND_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_TIMEOUT: %w", err)
	}

	return &Config{
		LabelPattern:     os.Getenv("LABEL_PATTERN"),
		SlackWebhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),
		SlackChannel:     os.Getenv("SLACK_CHANNEL"),
		SlackIconEmoji:   os.Getenv("SLACK_ICON_EMOJI"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:   chatID,
		TelegramThreadID: threadID,
		Port:             getEnv("PORT", "8080"),
		SendTimeout:      timeout,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt64(key string) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
