package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath string

	ServerHost string
	ServerPort string

	LbrynetURL    string
	ClaimCacheTTL time.Duration

	NotificationURL       string
	NotificationAuthToken string
	SlackWebhook          string

	RedisURL string

	WriterQueueSize int

	BackupPath     string
	BackupInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "database/comments.db"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "5921"
	}

	lbrynetURL := os.Getenv("LBRYNET_URL")
	if lbrynetURL == "" {
		lbrynetURL = "http://localhost:5279"
	}

	claimCacheTTL, err := strconv.Atoi(os.Getenv("CLAIM_CACHE_TTL"))
	if err != nil || claimCacheTTL < 0 {
		claimCacheTTL = 60
	}

	writerQueueSize, err := strconv.Atoi(os.Getenv("WRITER_QUEUE_SIZE"))
	if err != nil || writerQueueSize <= 0 {
		writerQueueSize = 64
	}

	// 0 disables periodic backups
	backupInterval, err := strconv.Atoi(os.Getenv("BACKUP_INTERVAL"))
	if err != nil || backupInterval < 0 {
		backupInterval = 0
	}

	return &Config{
		DBPath: dbPath,

		ServerHost: os.Getenv("SERVER_HOST"),
		ServerPort: serverPort,

		LbrynetURL:    lbrynetURL,
		ClaimCacheTTL: time.Duration(claimCacheTTL) * time.Second,

		NotificationURL:       os.Getenv("NOTIFICATION_URL"),
		NotificationAuthToken: os.Getenv("NOTIFICATION_AUTH_TOKEN"),
		SlackWebhook:          os.Getenv("SLACK_WEBHOOK"),

		RedisURL: os.Getenv("REDIS_URL"),

		WriterQueueSize: writerQueueSize,

		BackupPath:     os.Getenv("BACKUP_PATH"),
		BackupInterval: time.Duration(backupInterval) * time.Second,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
	}, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// BackupUploadEnabled reports whether backups are also pushed to R2.
func (c *Config) BackupUploadEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
