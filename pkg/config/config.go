package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	SessionSecret           string
	SessionTTL              time.Duration
	RedisURL                string
	RedisPassword           string
	RedisDB                 int
	NatsURL                 string
	FirebaseCredentialsPath string
	AllowedOrigins          []string
}

// Load reads configuration from the environment, falling back to a .env file
// when one is present.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_DATABASE", "writersguild")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALLOWED_ORIGINS", "*")

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		SessionSecret:           v.GetString("SESSION_SECRET"),
		SessionTTL:              v.GetDuration("SESSION_TTL"),
		RedisURL:                v.GetString("REDIS_URL"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		NatsURL:                 v.GetString("NATS_URL"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		AllowedOrigins:          splitList(v.GetString("ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
