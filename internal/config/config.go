package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Redis backs the shared TTL cache. When RedisAddr is empty the process
	// falls back to an in-memory store (single-instance deployments only).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string
	SNSTopicARN string // daily-task outcome notifications; empty disables them

	// External identity verifier (wallet credential issuance).
	VerifierBaseURL string
	VerifierAPIKey  string

	// Outbound trigger endpoints for the daily task's sync steps. Empty URLs
	// disable the corresponding step.
	CalendarSyncURL   string
	ContactsSyncURL   string
	InviteDispatchURL string

	// DefaultDailyCron is used until an operator stores an override under the
	// daily_task_cron settings key.
	DefaultDailyCron string

	AdminAPIKey    string
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Visitors string
	Settings string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Visitors: getEnv("DYNAMO_TABLE_VISITORS", "visitors"),
			Settings: getEnv("DYNAMO_TABLE_SETTINGS", "settings"),
		},

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		VerifierBaseURL: getEnv("VERIFIER_BASE_URL", ""),
		VerifierAPIKey:  getEnv("VERIFIER_API_KEY", ""),

		CalendarSyncURL:   getEnv("CALENDAR_SYNC_URL", ""),
		ContactsSyncURL:   getEnv("CONTACTS_SYNC_URL", ""),
		InviteDispatchURL: getEnv("INVITE_DISPATCH_URL", ""),

		DefaultDailyCron: getEnv("DAILY_TASK_CRON", "*/15 * * * *"),

		AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
