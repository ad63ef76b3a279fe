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
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	TokenTTL         time.Duration
	OTPTTL           time.Duration
	PaymentIntentTTL time.Duration
	ReportCacheTTL   time.Duration
	PendingCacheTTL  time.Duration

	AIBaseURL      string
	AIAPIKey       string
	AIModel        string
	EmbeddingModel string

	SendgridAPIKey string
	FromEmail      string
	FromName       string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	PayPalClientID        string
	PayPalClientSecret    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STUDYFRIEND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "StudyFriend API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("payment.intent_ttl", "30m")
	v.SetDefault("report.cache_ttl", "10m")
	v.SetDefault("report.pending_ttl", "5m")
	v.SetDefault("ai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.model", "mixtral-8x7b-32768")
	v.SetDefault("ai.embedding_model", "text-embedding-3-small")
	v.SetDefault("email.from", "no-reply@studyfriend.app")
	v.SetDefault("email.from_name", "StudyFriend")

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	otpTTL, err := time.ParseDuration(v.GetString("otp.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid otp ttl: %w", err)
	}

	intentTTL, err := time.ParseDuration(v.GetString("payment.intent_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid payment intent ttl: %w", err)
	}

	reportTTL, err := time.ParseDuration(v.GetString("report.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	pendingTTL, err := time.ParseDuration(v.GetString("report.pending_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid pending faculty cache ttl: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		TokenTTL:         tokenTTL,
		OTPTTL:           otpTTL,
		PaymentIntentTTL: intentTTL,
		ReportCacheTTL:   reportTTL,
		PendingCacheTTL:  pendingTTL,

		AIBaseURL:      v.GetString("ai.base_url"),
		AIAPIKey:       v.GetString("ai.api_key"),
		AIModel:        v.GetString("ai.model"),
		EmbeddingModel: v.GetString("ai.embedding_model"),

		SendgridAPIKey: v.GetString("sendgrid.api_key"),
		FromEmail:      v.GetString("email.from"),
		FromName:       v.GetString("email.from_name"),

		RazorpayKeyID:         v.GetString("razorpay.key_id"),
		RazorpayKeySecret:     v.GetString("razorpay.key_secret"),
		RazorpayWebhookSecret: v.GetString("razorpay.webhook_secret"),
		StripeSecretKey:       v.GetString("stripe.secret_key"),
		StripeWebhookSecret:   v.GetString("stripe.webhook_secret"),
		PayPalClientID:        v.GetString("paypal.client_id"),
		PayPalClientSecret:    v.GetString("paypal.client_secret"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
