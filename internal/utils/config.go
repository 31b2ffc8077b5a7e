package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type DatabaseConfig struct {
	Host             string
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" port=" + c.Port + " sslmode=disable TimeZone=UTC"
}

type ServerConfig struct {
	Port               string
	CORSOrigins        []string
	RateLimitPerSecond float64
	CookieSecure       bool
}

type TokenConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay was configured.
func (c *MailConfig) Enabled() bool {
	return c.Host != ""
}

type Config struct {
	Env      string
	Database *DatabaseConfig
	Server   *ServerConfig
	Token    *TokenConfig
	Mail     *MailConfig
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// LoadConfig reads dotenvPath when it exists and then the process environment.
func LoadConfig(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := durationEnv("RESET_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	rate, err := floatEnv("RATE_LIMIT_PER_SECOND", 5)
	if err != nil {
		return nil, err
	}
	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	tokenCfg := &TokenConfig{
		Secret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		ResetTokenTTL:   resetTTL,
	}
	if tokenCfg.Secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	dbCfg := &DatabaseConfig{
		Host:             stringEnv("DB_HOST", "localhost"),
		Port:             stringEnv("DB_PORT", "5432"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
	}
	serverCfg := &ServerConfig{
		Port:               stringEnv("SERVER_PORT", "4000"),
		CORSOrigins:        splitList(stringEnv("CORS_ORIGINS", "http://localhost:4200")),
		RateLimitPerSecond: rate,
		CookieSecure:       os.Getenv("COOKIE_SECURE") == "true",
	}
	mailCfg := &MailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     stringEnv("EMAIL_FROM", "info@user-management.local"),
	}

	cfg := &Config{
		Env:      stringEnv("APP_ENV", EnvProduction),
		Database: dbCfg,
		Server:   serverCfg,
		Token:    tokenCfg,
		Mail:     mailCfg,
	}
	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
