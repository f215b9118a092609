package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultSessionLanguage = "Mizo with English mix"

	defaultWindowMinutes = 120
	defaultRetentionDays = 7
	defaultMaxTurns      = 10
)

// Profile is the configuration to start the bot server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where the catalog and conversation data live
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Conversation context policy
	ContextWindowMinutes int    // CONTEXT_WINDOW_MINUTES (default: 120)
	ContextRetentionDays int    // CONTEXT_RETENTION_DAYS (default: 7)
	ContextMaxTurns      int    // CONTEXT_MAX_TURNS (default: 10)
	SessionLanguage      string // DEFAULT_SESSION_LANGUAGE

	// LLM providers, tried in the listed order
	LLMProviders []string // BAZAAR_LLM_PROVIDERS (default: openai)

	OpenAIAPIKey         string // OPENAI_API_KEY
	OpenAIBaseURL        string // OPENAI_BASE_URL (default: https://api.openai.com/v1)
	OpenAIChatModel      string // OPENAI_CHAT_MODEL (default: gpt-4o-mini)
	OpenAIEmbeddingModel string // OPENAI_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingDimensions  int    // BAZAAR_EMBEDDING_DIMENSIONS (default: 1536)
	DeepSeekAPIKey       string // DEEPSEEK_API_KEY
	DeepSeekBaseURL      string // DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	DeepSeekModel        string // DEEPSEEK_MODEL (default: deepseek-chat)
	OllamaBaseURL        string // OLLAMA_BASE_URL (default: http://localhost:11434)
	OllamaModel          string // OLLAMA_MODEL (default: llama3.1)
	GeminiAPIKey         string // GEMINI_API_KEY
	GeminiModel          string // GEMINI_MODEL (default: gemini-2.5-flash-lite)
	GeminiBaseURL        string // GEMINI_BASE_URL (empty uses the public endpoint)
	GeminiUseCache       bool   // GEMINI_USE_CACHE
	GeminiCacheID        string // GEMINI_CACHE_ID
	GeminiCacheTTL       int    // GEMINI_CACHE_TTL_SECONDS (default: 86400)
	GeminiCacheName      string // GEMINI_CACHE_DISPLAY_NAME (default: mizo_ecommerce_cache)
	GeminiCacheExamples  string // GEMINI_CACHE_EXAMPLES
	HuggingFaceLocalURL  string // HUGGINGFACE_LOCAL_URL

	// WhatsApp Business API
	WhatsAppVerifyToken string // WHATSAPP_VERIFY_TOKEN
	MetaPhoneNumberID   string // META_PHONE_NUMBER_ID (legacy: WHATSAPP_PHONE_NUMBER_ID)
	MetaAccessToken     string // META_SYSTEM_USER_ACCESS_TOKEN (legacy: WHATSAPP_ACCESS_TOKEN)
	MetaGraphVersion    string // META_GRAPH_VERSION (default: v20.0)

	// Optional infrastructure
	RedisAddr            string   // BAZAAR_REDIS_ADDR
	RedisPassword        string   // BAZAAR_REDIS_PASSWORD
	RedisDB              int      // BAZAAR_REDIS_DB
	RedisPrefix          string   // BAZAAR_REDIS_PREFIX (default: bazaar:)
	ElasticsearchURLs    []string // BAZAAR_ELASTICSEARCH_URLS
	ElasticsearchUser    string   // BAZAAR_ELASTICSEARCH_USERNAME
	ElasticsearchPass    string   // BAZAAR_ELASTICSEARCH_PASSWORD
	ElasticsearchIndex   string   // BAZAAR_ELASTICSEARCH_INDEX (default: products)
	MaxConcurrentReplies int      // BAZAAR_MAX_CONCURRENT_REPLIES (default: 8)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRedisEnabled returns true if a shared Redis cache is configured.
func (p *Profile) IsRedisEnabled() bool {
	return p.RedisAddr != ""
}

// IsElasticsearchEnabled returns true if catalog text search should go to Elasticsearch.
func (p *Profile) IsElasticsearchEnabled() bool {
	return len(p.ElasticsearchURLs) > 0
}

// CanSendWhatsApp returns true if outbound credentials are present.
func (p *Profile) CanSendWhatsApp() bool {
	return p.MetaPhoneNumberID != "" && p.MetaAccessToken != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getPositiveIntEnv returns the parsed value, or the default for missing, malformed or non-positive input.
func getPositiveIntEnv(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(key, legacyKey string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	p.ContextWindowMinutes = getPositiveIntEnv("CONTEXT_WINDOW_MINUTES", defaultWindowMinutes)
	p.ContextRetentionDays = getPositiveIntEnv("CONTEXT_RETENTION_DAYS", defaultRetentionDays)
	p.ContextMaxTurns = getPositiveIntEnv("CONTEXT_MAX_TURNS", defaultMaxTurns)
	p.SessionLanguage = getEnvOrDefault("DEFAULT_SESSION_LANGUAGE", DefaultSessionLanguage)

	p.LLMProviders = splitList(getEnvOrDefault("BAZAAR_LLM_PROVIDERS", "openai"))

	p.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.OpenAIChatModel = getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	p.OpenAIEmbeddingModel = getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDimensions = getPositiveIntEnv("BAZAAR_EMBEDDING_DIMENSIONS", 1536)
	p.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	p.DeepSeekBaseURL = getEnvOrDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	p.DeepSeekModel = getEnvOrDefault("DEEPSEEK_MODEL", "deepseek-chat")
	p.OllamaBaseURL = getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	p.OllamaModel = getEnvOrDefault("OLLAMA_MODEL", "llama3.1")
	p.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	p.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite")
	p.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	p.GeminiUseCache = os.Getenv("GEMINI_USE_CACHE") == "true"
	p.GeminiCacheID = os.Getenv("GEMINI_CACHE_ID")
	p.GeminiCacheTTL = getPositiveIntEnv("GEMINI_CACHE_TTL_SECONDS", 86400)
	p.GeminiCacheName = getEnvOrDefault("GEMINI_CACHE_DISPLAY_NAME", "mizo_ecommerce_cache")
	p.GeminiCacheExamples = os.Getenv("GEMINI_CACHE_EXAMPLES")
	p.HuggingFaceLocalURL = os.Getenv("HUGGINGFACE_LOCAL_URL")

	p.WhatsAppVerifyToken = os.Getenv("WHATSAPP_VERIFY_TOKEN")
	p.MetaPhoneNumberID = getEnvWithFallback("META_PHONE_NUMBER_ID", "WHATSAPP_PHONE_NUMBER_ID")
	p.MetaAccessToken = getEnvWithFallback("META_SYSTEM_USER_ACCESS_TOKEN", "WHATSAPP_ACCESS_TOKEN")
	p.MetaGraphVersion = getEnvOrDefault("META_GRAPH_VERSION", "v20.0")

	p.RedisAddr = os.Getenv("BAZAAR_REDIS_ADDR")
	p.RedisPassword = os.Getenv("BAZAAR_REDIS_PASSWORD")
	if db, err := strconv.Atoi(os.Getenv("BAZAAR_REDIS_DB")); err == nil && db >= 0 {
		p.RedisDB = db
	}
	p.RedisPrefix = getEnvOrDefault("BAZAAR_REDIS_PREFIX", "bazaar:")
	p.ElasticsearchURLs = splitList(os.Getenv("BAZAAR_ELASTICSEARCH_URLS"))
	p.ElasticsearchUser = os.Getenv("BAZAAR_ELASTICSEARCH_USERNAME")
	p.ElasticsearchPass = os.Getenv("BAZAAR_ELASTICSEARCH_PASSWORD")
	p.ElasticsearchIndex = getEnvOrDefault("BAZAAR_ELASTICSEARCH_INDEX", "products")
	p.MaxConcurrentReplies = getPositiveIntEnv("BAZAAR_MAX_CONCURRENT_REPLIES", 8)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres")
	}
	if p.ContextWindowMinutes <= 0 {
		p.ContextWindowMinutes = defaultWindowMinutes
	}
	if p.ContextRetentionDays <= 0 {
		p.ContextRetentionDays = defaultRetentionDays
	}
	if p.ContextMaxTurns <= 0 {
		p.ContextMaxTurns = defaultMaxTurns
	}
	if p.SessionLanguage == "" {
		p.SessionLanguage = DefaultSessionLanguage
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("bazaarbot_%s.db", p.Mode))
	}

	return nil
}
