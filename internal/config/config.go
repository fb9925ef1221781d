package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeLocal    = "local"
)

type Config struct {
	Port        string
	DatabaseURL string

	Auth       AuthConfig
	Firebase   FirebaseConfig
	Routing    RoutingConfig
	Classifier ClassifierConfig

	GoogleMapsAPIKey string
	RewardPolicyFile string
	AllowedOrigins   []string
}

type AuthConfig struct {
	Mode          string
	JWTSecret     string
	AdminEmails   []string
	AdminPassword string // seeds the first admin in local mode
}

type FirebaseConfig struct {
	CredentialsBase64 string
	CredentialsFile   string
}

type RoutingConfig struct {
	OSRMBaseURL string
	Timeout     time.Duration
}

type ClassifierConfig struct {
	URL     string
	Timeout time.Duration
}

// Load reads .env (when present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	routingTimeout, err := getDurationOrDefault("ROUTING_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := getDurationOrDefault("CLASSIFIER_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Auth: AuthConfig{
			Mode:          strings.ToLower(getEnvOrDefault("AUTH_MODE", AuthModeFirebase)),
			JWTSecret:     os.Getenv("APP_JWT_SECRET"),
			AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Firebase: FirebaseConfig{
			CredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
			CredentialsFile:   os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		},
		Routing: RoutingConfig{
			OSRMBaseURL: getEnvOrDefault("OSRM_BASE_URL", "http://router.project-osrm.org"),
			Timeout:     routingTimeout,
		},
		Classifier: ClassifierConfig{
			URL:     os.Getenv("CLASSIFIER_URL"),
			Timeout: classifierTimeout,
		},
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		RewardPolicyFile: os.Getenv("REWARD_POLICY_FILE"),
		AllowedOrigins:   splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	switch c.Auth.Mode {
	case AuthModeLocal:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("APP_JWT_SECRET is required when AUTH_MODE=local")
		}
	case AuthModeFirebase:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (want %s or %s)", c.Auth.Mode, AuthModeFirebase, AuthModeLocal)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration like 10s", key, value)
	}
	return d, nil
}

// splitList parses a comma separated env value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
