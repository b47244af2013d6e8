package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// LLMName is the default engine for the audit call, VisionLLMName for extraction.
	LLMName       string
	VisionLLMName string

	GroqAPIKey      string
	GroqModel       string
	GroqVisionModel string
	GeminiAPIKey    string
	GeminiModel     string

	AuditTemperature float32

	DataDir        string
	DatabaseURL    string // "" - кэш в памяти
	PolicyCacheTTL time.Duration
	// WarmPolicies extracts every library document at startup.
	WarmPolicies bool

	TelegramBotToken string
	WebhookURL       string
}

// MustEnv exits when k is unset. Only binaries call it.
func MustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads the environment. A .env file in the working directory is
// applied first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	temp, err := strconv.ParseFloat(getEnv("AUDIT_TEMPERATURE", "0.1"), 32)
	if err != nil || temp < 0 || temp > 2 {
		return nil, fmt.Errorf("AUDIT_TEMPERATURE: want a number in [0,2], got %q", os.Getenv("AUDIT_TEMPERATURE"))
	}
	ttl, err := time.ParseDuration(getEnv("POLICY_CACHE_TTL", "720h"))
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("POLICY_CACHE_TTL: want a duration, got %q", os.Getenv("POLICY_CACHE_TTL"))
	}

	warm, err := strconv.ParseBool(getEnv("WARM_POLICY_CACHE", "false"))
	if err != nil {
		return nil, fmt.Errorf("WARM_POLICY_CACHE: want a boolean, got %q", os.Getenv("WARM_POLICY_CACHE"))
	}

	return &Config{
		Port:     getEnv("PORT", "8000"),
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LLMName:       strings.ToLower(getEnv("LLM_NAME", "groq")),
		VisionLLMName: strings.ToLower(getEnv("VISION_LLM_NAME", "gemini")),

		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqModel:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqVisionModel: getEnv("GROQ_VISION_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AuditTemperature: float32(temp),

		DataDir:        getEnv("DATA_DIR", "data"),
		DatabaseURL:    resolveDSN(),
		PolicyCacheTTL: ttl,
		WarmPolicies:   warm,

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}, nil
}

// resolveDSN prefers DATABASE_URL, then builds one from POSTGRES_*/PG*.
// Returns "" when no database is configured at all.
func resolveDSN() string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}
	configured := false
	for _, k := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "PGHOST"} {
		if getEnv(k, "") != "" {
			configured = true
			break
		}
	}
	if !configured {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "mediaudit"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(getEnv("PGHOST", "localhost"), getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "mediaudit"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SafeDSNSummary prints a DSN without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}

func (c *Config) IsLocal() bool { return strings.EqualFold(c.AppEnv, "local") }
