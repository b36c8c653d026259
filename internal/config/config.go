package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port  string
	Env   string
	Debug bool

	// Assistant provider
	Provider              string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	GeminiAPIKey          string
	GeminiModel           string
	Temperature           float32
	ExposeUpstreamDetails bool
	MaxBodyBytes          int

	// Persona
	DesignerName     string
	PersonaPath      string
	PersonaFactsPath string
	PersonaWatch     bool
	Suggestions      []string

	// Reply cache. Empty disables it and every request reaches the provider.
	// When set, a repeated identical message within ReplyCacheTTL is answered
	// from Redis without a provider call.
	RedisURL      string
	ReplyCacheTTL time.Duration

	// Frontend
	FrontendURLs []string
	StaticDir    string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:  getEnvOrDefault("PORT", "8001"),
		Env:   getEnvOrDefault("ENV", "development"),
		Debug: getEnvAsBoolOrDefault("DEBUG", false),

		Provider:              strings.ToLower(getEnvOrDefault("ASSISTANT_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:           getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature:           float32(getEnvAsFloatOrDefault("ASSISTANT_TEMPERATURE", 0.4)),
		ExposeUpstreamDetails: getEnvAsBoolOrDefault("EXPOSE_UPSTREAM_DETAILS", false),
		MaxBodyBytes:          getEnvAsIntOrDefault("ASSISTANT_MAX_BODY_BYTES", 64<<10),

		DesignerName:     getEnvOrDefault("ASSISTANT_DESIGNER_NAME", "the designer"),
		PersonaPath:      os.Getenv("PERSONA_PATH"),
		PersonaFactsPath: os.Getenv("PERSONA_FACTS_PATH"),
		PersonaWatch:     getEnvAsBoolOrDefault("PERSONA_WATCH", false),
		Suggestions:      getEnvAsListOrDefault("ASSISTANT_SUGGESTIONS", "|", nil),

		RedisURL:      os.Getenv("REDIS_URL"),
		ReplyCacheTTL: getEnvAsDurationOrDefault("REPLY_CACHE_TTL", time.Hour),

		FrontendURLs: getEnvAsListOrDefault("FRONTEND_URL", ",", []string{"*"}),
		StaticDir:    os.Getenv("STATIC_DIR"),
	}

	return cfg
}

// CredentialEnv names the environment variable holding the selected provider's key.
func (c *Config) CredentialEnv() string {
	if c.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// APIKey returns the credential of the selected provider, empty when unset.
func (c *Config) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// Model returns the fixed model identifier of the selected provider.
func (c *Config) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Plain integers are read as seconds
		if n, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(n) * time.Second
		}
		return defaultVal
	}
	return d
}

func getEnvAsListOrDefault(key, sep string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
