package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	CORSAllowOrigins       string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	CloudinaryCertFolder   string
	SendGridAPIKey         string
	EmailFrom              string
	EmailFromName          string
	CertificateBaseURL     string
	CertificateIssuer      string
	VerifyCacheTTL         time.Duration
	AnalyticsCacheTTL      time.Duration
	VerifierEmailDomains   []string
	RateLimitMax           int
	RateLimitWindow        time.Duration
	UploadMaxSizeMB        int
	ResultsCron            string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CERTIFY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Certify API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("cloudinary.folder", "certify/artifacts")
	v.SetDefault("cloudinary.certificate_folder", "certify/certificates")
	v.SetDefault("email.from", "no-reply@certify.local")
	v.SetDefault("email.from_name", "Certify")
	v.SetDefault("certificate.base_url", "http://localhost:8080")
	v.SetDefault("certificate.issuer", "Certify Workshop Program")
	v.SetDefault("verify.cache_ttl", "10m")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("results.cron", "*/15 * * * *")

	ttl, err := parseDuration(v.GetString("verify.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid verify cache ttl: %w", err)
	}

	analyticsTTL, err := parseDuration(v.GetString("analytics.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		CloudinaryCertFolder:   v.GetString("cloudinary.certificate_folder"),
		SendGridAPIKey:         v.GetString("sendgrid.api_key"),
		EmailFrom:              v.GetString("email.from"),
		EmailFromName:          v.GetString("email.from_name"),
		CertificateBaseURL:     strings.TrimRight(v.GetString("certificate.base_url"), "/"),
		CertificateIssuer:      v.GetString("certificate.issuer"),
		VerifyCacheTTL:         ttl,
		AnalyticsCacheTTL:      analyticsTTL,
		VerifierEmailDomains:   splitList(v.GetString("verifier.email_domains")),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        window,
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		ResultsCron:            strings.TrimSpace(v.GetString("results.cron")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
