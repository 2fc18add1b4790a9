package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all configuration for the chat service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Display   DisplayConfig   `mapstructure:"display"`
}

// GeneralConfig contains general application settings. DefaultTimeout fills any
// backend, llm or storage timeout left unset.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and session settings. Conversation selects the
// transcript store: "memory" or "redis".
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
	RememberFor     time.Duration `mapstructure:"remember_for"`
	SessionFor      time.Duration `mapstructure:"session_for"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	Conversation    string        `mapstructure:"conversation"`
	ConversationTTL time.Duration `mapstructure:"conversation_ttl"`
}

// Validate checks the server settings.
func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required")
	}
	switch s.Conversation {
	case "memory", "redis":
	default:
		return fmt.Errorf("server.conversation must be memory or redis, got %q", s.Conversation)
	}
	return nil
}

// BackendConfig points the chat panel at the assistant backend. When Embedded is set the
// same process also serves the backend API under /api/v1.
type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Embedded bool          `mapstructure:"embedded"`
}

// Validate checks the backend settings.
func (b BackendConfig) Validate() error {
	if strings.TrimSpace(b.BaseURL) == "" {
		return fmt.Errorf("backend.base_url required")
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute url: %q", b.BaseURL)
	}
	return nil
}

// LLMConfig contains the OpenAI compatible provider used for routing and summaries
type LLMConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	RouterModel  string        `mapstructure:"router_model"`
	SummaryModel string        `mapstructure:"summary_model"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an API key is configured.
func (l LLMConfig) Enabled() bool { return strings.TrimSpace(l.APIKey) != "" }

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

// Configured reports whether a host was given.
func (r RedisConfig) Configured() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns the connection string, building it from parts when no url is set.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// FeedSource is one RSS/Atom feed to ingest.
type FeedSource struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// IngestionConfig controls feed ingestion and its schedule.
type IngestionConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Schedule      string        `mapstructure:"schedule"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	MaxPerFeed    int           `mapstructure:"max_per_feed"`
	MinContentLen int           `mapstructure:"min_content_len"`
	MinSummaryLen int           `mapstructure:"min_summary_len"`
	Concurrency   int           `mapstructure:"concurrency"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	Sources       []FeedSource  `mapstructure:"sources"`
}

// Normalize applies defaults for unset ingestion values.
func (c IngestionConfig) Normalize() IngestionConfig {
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = "0 */6 * * *"
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
	if c.MaxPerFeed <= 0 {
		c.MaxPerFeed = 30
	}
	if c.MinContentLen <= 0 {
		c.MinContentLen = 200
	}
	if c.MinSummaryLen <= 0 {
		c.MinSummaryLen = 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = "NovaChat/1.0 (+https://github.com/mohammad-safakhou/novachat)"
	}
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	return c
}

// Validate checks the ingestion configuration.
func (c IngestionConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := cronexpr.Parse(c.Schedule); err != nil {
		return fmt.Errorf("ingestion.schedule: %w", err)
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("ingestion.sources[%d].url required", i)
		}
	}
	return nil
}

// DefaultSources lists the AI news feeds ingested when none are configured.
func DefaultSources() []FeedSource {
	return []FeedSource{
		{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml"},
		{Name: "Google AI Blog", URL: "https://ai.googleblog.com/feeds/posts/default?alt=rss"},
		{Name: "Anthropic News", URL: "https://www.anthropic.com/news/rss.xml"},
		{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
		{Name: "Perplexity Blog", URL: "https://blog.perplexity.ai/rss.xml"},
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
		{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
		{Name: "Wired AI", URL: "https://www.wired.com/feed/tag/artificial-intelligence/latest/rss"},
		{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
		{Name: "Ars Technica AI", URL: "https://arstechnica.com/tag/ai/feed/"},
	}
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// DisplayConfig holds UI text settings.
type DisplayConfig struct {
	BrandName    string   `mapstructure:"brand_name"`
	QuickQueries []string `mapstructure:"quick_queries"`
}

// Normalize applies UI defaults.
func (d DisplayConfig) Normalize() DisplayConfig {
	if strings.TrimSpace(d.BrandName) == "" {
		d.BrandName = "Nova AI"
	}
	if len(d.QuickQueries) == 0 {
		d.QuickQueries = []string{
			"Son 3 gündeki AI haberlerini özetle",
			"Son 7 gündeki AI haberlerini özetle",
			"GPT-5 ile ilgili haberleri getir",
		}
	}
	return d
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.default_timeout", 30*time.Second)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.remember_for", 30*24*time.Hour)
	v.SetDefault("server.session_for", 12*time.Hour)
	v.SetDefault("server.conversation", "memory")
	v.SetDefault("server.conversation_ttl", 24*time.Hour)
	v.SetDefault("server.allowed_origins", []string{"http://localhost", "http://localhost:3000"})
	v.SetDefault("backend.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.embedded", true)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.router_model", "gpt-4o-mini")
	v.SetDefault("llm.summary_model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.postgres.timeout", 5*time.Second)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_path", "/metrics")
}

// LoadConfig loads config from file. An empty path searches the usual locations;
// a missing file is only fatal when path was given explicitly.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config") // path to look for the config file in
		v.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NOVACHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (NOVACHAT_*)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Ingestion = cfg.Ingestion.Normalize()
	cfg.Display = cfg.Display.Normalize()
	cfg.applyDefaultTimeout()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaultTimeout() {
	d := c.General.DefaultTimeout
	if d <= 0 {
		d = 30 * time.Second
		c.General.DefaultTimeout = d
	}
	for _, t := range []*time.Duration{&c.Backend.Timeout, &c.LLM.Timeout, &c.Storage.Redis.Timeout, &c.Storage.Postgres.Timeout} {
		if *t <= 0 {
			*t = d
		}
	}
}

// Validate runs every section check.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Ingestion.Validate(); err != nil {
		return err
	}
	if c.Server.Conversation == "redis" || c.Ingestion.Enabled {
		if err := c.Storage.Redis.Validate(); err != nil {
			return err
		}
	}
	if c.Backend.Embedded {
		if err := c.Storage.Postgres.Validate(); err != nil {
			return err
		}
	}
	return nil
}
