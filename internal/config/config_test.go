package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func withSecret(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", testSecret)
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	withSecret(t)
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_PanicsWithoutSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic when SESSION_SECRET is missing")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	withSecret(t)

	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/")

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("HISTORY_LIMIT", "3")

	// Session
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SESSION_COOKIE_NAME", "studio")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("SESSION_VERIFY_ACCOUNT", "1")
	t.Setenv("STATE_IDLE_TTL", "10m")

	// Credentials
	t.Setenv("MIN_PASSWORD_LEN", "8")
	t.Setenv("SECRET_KEY_PREFIX", "key-")
	t.Setenv("BCRYPT_COST", "4")

	// GenAI
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("PROMPT_MODEL", "gpt-x")
	t.Setenv("PROMPT_TEMPERATURE", "0.2")
	t.Setenv("IMAGE_MODEL", "img-x")
	t.Setenv("IMAGE_SIZE", "1024x1024")
	t.Setenv("IMAGE_QUALITY", "standard")
	t.Setenv("IMAGE_STYLE", "natural")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")

	// Rate limiting (invalid parses fall back to defaults)
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.HistoryLimit != 3 {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}

	wantSession := SessionConfig{
		Secret:        testSecret,
		TTL:           time.Hour,
		CookieName:    "studio",
		CookieSecure:  true,
		VerifyAccount: true,
		StateIdleTTL:  10 * time.Minute,
	}
	if cfg.Session != wantSession {
		t.Fatalf("session unexpected: %+v", cfg.Session)
	}
	wantCreds := CredentialConfig{MinPasswordLen: 8, SecretKeyPrefix: "key-", BcryptCost: 4}
	if cfg.Credentials != wantCreds {
		t.Fatalf("credentials unexpected: %+v", cfg.Credentials)
	}
	wantAI := GenAIConfig{
		BaseURL:           "http://localhost:9999/v1",
		PromptModel:       "gpt-x",
		PromptTemperature: 0.2,
		ImageModel:        "img-x",
		ImageSize:         "1024x1024",
		ImageQuality:      "standard",
		ImageStyle:        "natural",
		Timeout:           2 * time.Second,
	}
	if cfg.GenAI != wantAI {
		t.Fatalf("genai unexpected: %+v", cfg.GenAI)
	}

	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	withSecret(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if cfg.Session.CookieName != "session_data" || cfg.Session.TTL != 30*24*time.Hour {
		t.Fatalf("session defaults unexpected: %+v", cfg.Session)
	}
	if cfg.Credentials.MinPasswordLen != 6 || cfg.Credentials.SecretKeyPrefix != "sk-" {
		t.Fatalf("credential defaults unexpected: %+v", cfg.Credentials)
	}
	if cfg.GenAI.PromptModel != "gpt-4" || cfg.GenAI.ImageModel != "dall-e-3" || cfg.GenAI.ImageSize != "1792x1024" {
		t.Fatalf("genai defaults unexpected: %+v", cfg.GenAI)
	}
	if cfg.HistoryLimit != 5 {
		t.Fatalf("history limit default = %d", cfg.HistoryLimit)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT via spaces", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes <= 0", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"empty DB_PATH", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"history limit < 1", "HISTORY_LIMIT", "0", "HISTORY_LIMIT"},
		{"short session secret", "SESSION_SECRET", "short", "SESSION_SECRET"},
		{"session ttl non-positive", "SESSION_TTL", "0s", "SESSION_TTL"},
		{"blank cookie name", "SESSION_COOKIE_NAME", "  ", "SESSION_COOKIE_NAME"},
		{"min password < 1", "MIN_PASSWORD_LEN", "0", "MIN_PASSWORD_LEN"},
		{"bcrypt cost out of range", "BCRYPT_COST", "2", "BCRYPT_COST"},
		{"temperature out of range", "PROMPT_TEMPERATURE", "3", "PROMPT_TEMPERATURE"},
		{"upstream timeout not below write timeout", "UPSTREAM_TIMEOUT", "5m", "UPSTREAM_TIMEOUT"},
		{"base url without scheme", "OPENAI_BASE_URL", "api.openai.com", "OPENAI_BASE_URL"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst < 1", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"idempotency ttl non-positive", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"otel sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withSecret(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}

	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("SESSION_SECRET")
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
