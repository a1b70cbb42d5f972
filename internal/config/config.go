// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, session handling, the
// generative AI providers, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-image-studio")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SessionConfig controls the signed session cookie and the in-memory
// per-session state kept next to it.
type SessionConfig struct {
	Secret        string        // SESSION_SECRET, >= 32 bytes
	TTL           time.Duration // SESSION_TTL
	CookieName    string        // SESSION_COOKIE_NAME
	CookieSecure  bool          // COOKIE_SECURE
	VerifyAccount bool          // SESSION_VERIFY_ACCOUNT
	StateIdleTTL  time.Duration // STATE_IDLE_TTL
}

// CredentialConfig holds the registration rules of the credential store.
type CredentialConfig struct {
	MinPasswordLen  int    // MIN_PASSWORD_LEN
	SecretKeyPrefix string // SECRET_KEY_PREFIX
	BcryptCost      int    // BCRYPT_COST
}

// GenAIConfig describes the prompt and image synthesis providers.
type GenAIConfig struct {
	BaseURL           string        // OPENAI_BASE_URL
	PromptModel       string        // PROMPT_MODEL
	PromptTemperature float64       // PROMPT_TEMPERATURE
	ImageModel        string        // IMAGE_MODEL
	ImageSize         string        // IMAGE_SIZE
	ImageQuality      string        // IMAGE_QUALITY
	ImageStyle        string        // IMAGE_STYLE
	Timeout           time.Duration // UPSTREAM_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 120s, must outlive upstream calls
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath       string // SQLite path
	HistoryLimit int    // results kept per session

	Session     SessionConfig
	Credentials CredentialConfig
	GenAI       GenAIConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a generation replay is kept

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:       getenv("DB_PATH", "users.db"),
		HistoryLimit: getint("HISTORY_LIMIT", 5),

		Session: SessionConfig{
			Secret:        getenv("SESSION_SECRET", ""),
			TTL:           getdur("SESSION_TTL", 30*24*time.Hour),
			CookieName:    getenv("SESSION_COOKIE_NAME", "session_data"),
			CookieSecure:  getbool("COOKIE_SECURE", false),
			VerifyAccount: getbool("SESSION_VERIFY_ACCOUNT", false),
			StateIdleTTL:  getdur("STATE_IDLE_TTL", 2*time.Hour),
		},
		Credentials: CredentialConfig{
			MinPasswordLen:  getint("MIN_PASSWORD_LEN", 6),
			SecretKeyPrefix: getenv("SECRET_KEY_PREFIX", "sk-"),
			BcryptCost:      getint("BCRYPT_COST", 10),
		},
		GenAI: GenAIConfig{
			BaseURL:           strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			PromptModel:       getenv("PROMPT_MODEL", "gpt-4"),
			PromptTemperature: getfloat("PROMPT_TEMPERATURE", 0.7),
			ImageModel:        getenv("IMAGE_MODEL", "dall-e-3"),
			ImageSize:         getenv("IMAGE_SIZE", "1792x1024"),
			ImageQuality:      getenv("IMAGE_QUALITY", "hd"),
			ImageStyle:        getenv("IMAGE_STYLE", "vivid"),
			Timeout:           getdur("UPSTREAM_TIMEOUT", 90*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-image-studio"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.HistoryLimit < 1 {
		return cfg, errors.New("HISTORY_LIMIT must be >= 1")
	}
	if len(cfg.Session.Secret) < 32 {
		return cfg, errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.Session.TTL <= 0 || cfg.Session.StateIdleTTL <= 0 {
		return cfg, errors.New("SESSION_TTL and STATE_IDLE_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return cfg, errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	if cfg.Credentials.MinPasswordLen < 1 {
		return cfg, errors.New("MIN_PASSWORD_LEN must be >= 1")
	}
	if cfg.Credentials.BcryptCost < 4 || cfg.Credentials.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be in [4,31]")
	}
	if cfg.GenAI.PromptTemperature < 0 || cfg.GenAI.PromptTemperature > 2 {
		return cfg, errors.New("PROMPT_TEMPERATURE must be in [0,2]")
	}
	if cfg.GenAI.Timeout <= 0 {
		return cfg, errors.New("UPSTREAM_TIMEOUT must be > 0")
	}
	if cfg.GenAI.Timeout >= cfg.WriteTimeout {
		return cfg, errors.New("UPSTREAM_TIMEOUT must be shorter than WRITE_TIMEOUT")
	}
	if !strings.HasPrefix(cfg.GenAI.BaseURL, "http://") && !strings.HasPrefix(cfg.GenAI.BaseURL, "https://") {
		return cfg, errors.New("OPENAI_BASE_URL must be an http(s) URL")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
