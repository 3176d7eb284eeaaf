package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "FIGURDLE"

type Config struct {
	Bind        string
	Port        int
	DatabaseURL string
	CORSOrigin  string

	LLM          string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	PromptDir    string

	SigningSecret  string
	AdminKey       string
	Timezone       string
	RejectOnLeak   bool
	MaxAttempts    int
	RotateInterval time.Duration

	TelegramToken string
	WebhookURL    string

	Verbose bool
}

// legacyEnv maps flags to the unprefixed variables older deployments set.
var legacyEnv = map[string][]string{
	"port":           {"PORT"},
	"database-url":   {"DATABASE_URL"},
	"openai-api-key": {"OPENAI_API_KEY"},
	"openai-model":   {"OPENAI_MODEL"},
	"gemini-api-key": {"GEMINI_API_KEY"},
	"gemini-model":   {"GEMINI_MODEL"},
	"prompt-dir":     {"PROMPT_DIR"},
	"signing-secret": {"PUZZLE_SIGNING_SECRET"},
	"admin-key":      {"ADMIN_KEY"},
	"telegram-token": {"TELEGRAM_BOT_TOKEN"},
	"webhook-url":    {"WEBHOOK_URL"},
}

// Bind registers every setting as a persistent flag of cmd and fills unset
// flags from the environment (FIGURDLE_<FLAG>, then the legacy name). A .env
// file in the working directory is loaded first if present.
func Bind(cmd *cobra.Command) *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: FIGURDLE_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8000, "port to listen on (env: FIGURDLE_PORT, PORT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres DSN; built from POSTGRES_*/PG* when empty (env: FIGURDLE_DATABASE_URL, DATABASE_URL)")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", "*", "Access-Control-Allow-Origin value, empty to disable (env: FIGURDLE_CORS_ORIGIN)")

	fs.StringVar(&cfg.LLM, "llm", "gpt", "generation engine: gpt or gemini (env: FIGURDLE_LLM)")
	fs.StringVar(&cfg.OpenAIAPIKey, "openai-api-key", "", "OpenAI API key (env: FIGURDLE_OPENAI_API_KEY, OPENAI_API_KEY)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "gpt-4o-mini", "OpenAI model (env: FIGURDLE_OPENAI_MODEL, OPENAI_MODEL)")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "Gemini API key (env: FIGURDLE_GEMINI_API_KEY, GEMINI_API_KEY)")
	fs.StringVar(&cfg.GeminiModel, "gemini-model", "gemini-2.5-flash", "Gemini model (env: FIGURDLE_GEMINI_MODEL, GEMINI_MODEL)")
	fs.StringVar(&cfg.PromptDir, "prompt-dir", "", "directory with <name>.<system|user>.txt prompt overrides (env: FIGURDLE_PROMPT_DIR, PROMPT_DIR)")

	fs.StringVar(&cfg.SigningSecret, "signing-secret", "", "HMAC secret for puzzle tickets (env: FIGURDLE_SIGNING_SECRET, PUZZLE_SIGNING_SECRET)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "X-Admin-Key required by /admin/rotate, empty disables (env: FIGURDLE_ADMIN_KEY, ADMIN_KEY)")
	fs.StringVar(&cfg.Timezone, "timezone", "America/Los_Angeles", "time zone that defines the puzzle day (env: FIGURDLE_TIMEZONE)")
	fs.BoolVar(&cfg.RejectOnLeak, "reject-on-leak", false, "reject candidates whose clues contain part of the name (env: FIGURDLE_REJECT_ON_LEAK)")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", 5, "generation attempts before giving up (env: FIGURDLE_MAX_ATTEMPTS)")
	fs.DurationVar(&cfg.RotateInterval, "rotate-interval", time.Hour, "how often the scheduler checks for a missing puzzle (env: FIGURDLE_ROTATE_INTERVAL)")

	fs.StringVar(&cfg.TelegramToken, "telegram-token", "", "Telegram bot token (env: FIGURDLE_TELEGRAM_TOKEN, TELEGRAM_BOT_TOKEN)")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", "", "public base URL for webhook mode, polling when empty (env: FIGURDLE_WEBHOOK_URL, WEBHOOK_URL)")

	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug logging (env: FIGURDLE_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))}, legacyEnv[f.Name]...)
		_ = v.BindEnv(append([]string{f.Name}, envs...)...)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	return cfg
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be at least 1: %d", c.MaxAttempts)
	}
	if c.RotateInterval <= 0 {
		return fmt.Errorf("rotate-interval must be positive: %s", c.RotateInterval)
	}
	return nil
}

// ValidateGeneration checks the engine selection and its API key.
func (c *Config) ValidateGeneration() error {
	switch strings.ToLower(c.LLM) {
	case "gpt", "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("openai-api-key is required for --llm=gpt")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("gemini-api-key is required for --llm=gemini")
		}
	default:
		return fmt.Errorf("unknown llm %q (want gpt or gemini)", c.LLM)
	}
	return nil
}

// ValidateGame checks what serving puzzles to players needs.
func (c *Config) ValidateGame() error {
	if c.SigningSecret == "" {
		return errors.New("signing-secret is required")
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, fmt.Sprint(c.Port))
}

// DSN prefers DatabaseURL, then builds one from POSTGRES_* / PG* variables.
func (c *Config) DSN() string {
	if v := strings.TrimSpace(c.DatabaseURL); v != "" {
		return v
	}
	user := getenvDefault("POSTGRES_USER", "figurdle")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "figurdle")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
