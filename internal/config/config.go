package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	CredentialSourceEnv   = "env"
	CredentialSourceStore = "store"
)

var AppEnv Config

type Config struct {
	Port    string
	AppEnv  string
	SiteURL string

	StoreDriver string
	MongoURI    string
	DBName      string
	PostgresDSN string
	RedisURL    string

	SessionSecret string
	SessionTTL    time.Duration

	CredentialSource   string
	AdminEmail         string
	AdminPasswordHash  string
	AdminName          string
	AdminUIDir         string
	CORSAllowedOrigins []string

	OrderEventsTopicARN string
	AWSEndpoint         string

	LoginRatePerMinute int
	LoginBurst         int
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.AppEnv != "development" && c.AppEnv != "test"
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment without touching .env files.
func FromEnv() Config {
	siteURL := getEnvOrDefault("SITE_URL", "http://localhost:3000")
	return Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		AppEnv:  strings.ToLower(getEnvOrDefault("APP_ENV", "development")),
		SiteURL: siteURL,

		StoreDriver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverMongo)),
		MongoURI:    getEnvOrDefault("MONGO_URI", ""),
		DBName:      getEnvOrDefault("DB_NAME", "mynature"),
		PostgresDSN: getEnvOrDefault("POSTGRES_DSN", ""),
		RedisURL:    getEnvOrDefault("REDIS_URL", ""),

		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
		SessionTTL:    getDurationEnv("SESSION_TTL_HOURS", 48, time.Hour),

		CredentialSource:   strings.ToLower(getEnvOrDefault("ADMIN_CREDENTIAL_SOURCE", CredentialSourceStore)),
		AdminEmail:         strings.ToLower(getEnvOrDefault("ADMIN_EMAIL", "")),
		AdminPasswordHash:  getEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
		AdminName:          getEnvOrDefault("ADMIN_NAME", "Admin User"),
		AdminUIDir:         getEnvOrDefault("ADMIN_UI_DIR", "./public/admin"),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{siteURL}),

		OrderEventsTopicARN: getEnvOrDefault("ORDER_EVENTS_TOPIC_ARN", ""),
		AWSEndpoint:         getEnvOrDefault("AWS_ENDPOINT", ""),

		LoginRatePerMinute: getIntEnv("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         getIntEnv("LOGIN_BURST", 5),
	}
}

// Validate reports every missing or inconsistent value at once.
func (c Config) Validate() error {
	var problems []string

	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
		if c.CredentialSource != CredentialSourceEnv {
			problems = append(problems, "ADMIN_CREDENTIAL_SOURCE=env is required when STORE_DRIVER=memory")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.CredentialSource {
	case CredentialSourceEnv:
		if c.AdminEmail == "" || c.AdminPasswordHash == "" {
			problems = append(problems, "ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required when ADMIN_CREDENTIAL_SOURCE=env")
		}
	case CredentialSourceStore:
	default:
		problems = append(problems, fmt.Sprintf("unknown ADMIN_CREDENTIAL_SOURCE %q", c.CredentialSource))
	}

	if c.SessionSecret == "" && c.IsProduction() {
		problems = append(problems, "SESSION_SECRET is required outside development")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
