package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Executor provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
	ProviderFixture    = "fixture"
)

// Config holds the full application configuration.
type Config struct {
	Executor    ExecutorConfig    `yaml:"executor" mapstructure:"executor"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity  PerplexityConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Gemini      GeminiConfig      `yaml:"gemini" mapstructure:"gemini"`
	Jina        JinaConfig        `yaml:"jina" mapstructure:"jina"`
	Firecrawl   FirecrawlConfig   `yaml:"firecrawl" mapstructure:"firecrawl"`
	Research    ResearchConfig    `yaml:"research" mapstructure:"research"`
	Preferences PreferencesConfig `yaml:"preferences" mapstructure:"preferences"`
	Pricing     PricingConfig     `yaml:"pricing" mapstructure:"pricing"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ExecutorConfig selects and tunes the research executor backend.
type ExecutorConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FixturePath  string  `yaml:"fixture_path" mapstructure:"fixture_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ResearchConfig tunes the research pipeline.
type ResearchConfig struct {
	Concurrency  int  `yaml:"concurrency" mapstructure:"concurrency"`
	ExtendRounds int  `yaml:"extend_rounds" mapstructure:"extend_rounds"`
	Validate     bool `yaml:"validate" mapstructure:"validate"`
	ContextChars int  `yaml:"context_chars" mapstructure:"context_chars"`
}

// PreferencesConfig locates the user preferences file.
type PreferencesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic  map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     map[string]ModelPricing `yaml:"gemini" mapstructure:"gemini"`
	Jina       JinaPricing             `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityPricing       `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// JinaPricing holds Jina Reader pricing.
type JinaPricing struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
	Input    float64 `yaml:"input" mapstructure:"input"`
	Output   float64 `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envAliases maps config keys to the conventional provider env vars that are
// accepted alongside RESEARCH_*.
var envAliases = map[string]string{
	"anthropic.key":  "ANTHROPIC_API_KEY",
	"perplexity.key": "PERPLEXITY_API_KEY",
	"gemini.key":     "GEMINI_API_KEY",
	"jina.key":       "JINA_API_KEY",
	"firecrawl.key":  "FIRECRAWL_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "RESEARCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("executor.provider", ProviderAnthropic)
	v.SetDefault("executor.rate_limit_rps", 0.5)
	v.SetDefault("executor.max_attempts", 3)
	v.SetDefault("executor.timeout_secs", 180)
	v.SetDefault("executor.fixture_path", "testdata/fixtures.yaml")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("research.concurrency", 1)
	v.SetDefault("research.extend_rounds", 0)
	v.SetDefault("research.validate", true)
	v.SetDefault("research.context_chars", 6000)
	v.SetDefault("preferences.path", "config/user_config.txt")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.perplexity.input", 3.0)
	v.SetDefault("pricing.perplexity.output", 15.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the credentials and settings required by the selected
// executor provider are present. The error lists every missing item with the
// env var that supplies it.
func (c *Config) Validate() error {
	var missing []string
	require := func(val, key, env string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key+" is required (set "+env+")")
		}
	}

	switch c.Executor.Provider {
	case ProviderAnthropic:
		require(c.Anthropic.Key, "anthropic.key", "ANTHROPIC_API_KEY")
		require(c.Jina.Key, "jina.key", "JINA_API_KEY")
	case ProviderPerplexity:
		require(c.Perplexity.Key, "perplexity.key", "PERPLEXITY_API_KEY")
	case ProviderGemini:
		require(c.Gemini.Key, "gemini.key", "GEMINI_API_KEY")
	case ProviderFixture:
		require(c.Executor.FixturePath, "executor.fixture_path", "RESEARCH_EXECUTOR_FIXTURE_PATH")
		if c.Executor.FixturePath != "" {
			if _, err := os.Stat(c.Executor.FixturePath); err != nil {
				missing = append(missing, "executor.fixture_path is not readable: "+c.Executor.FixturePath)
			}
		}
	default:
		return &ConfigurationError{Key: "executor.provider", Reason: "unknown provider " + c.Executor.Provider}
	}

	if c.Executor.MaxAttempts < 1 {
		missing = append(missing, "executor.max_attempts must be at least 1")
	}
	if c.Research.Concurrency < 1 {
		missing = append(missing, "research.concurrency must be at least 1")
	}

	if len(missing) > 0 {
		return &ConfigurationError{Key: "credentials", Reason: strings.Join(missing, "; ")}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
