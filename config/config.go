// Package config loads reactor settings from a YAML file, REACTOR_* environment
// variables and the bare variable names used by earlier deployments.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/models"
	"github.com/blackhat-7/reactor/reasoning"
)

// Backend selectors.
const (
	SelectorOpenWebUI = "owui"
	SelectorOpenAI    = "openai"
	SelectorGemini    = "gemini"
	SelectorOllama    = "ollama"
	SelectorGitHub    = "github"
)

// preference orders the fallback default when no backend is named.
var preference = []string{SelectorOpenWebUI, SelectorOpenAI, SelectorGemini, SelectorGitHub, SelectorOllama}

// DefaultFileName is looked up in the home directory when no config file is given.
const DefaultFileName = ".reactor.yaml"

// ErrNoBackend is returned when no reasoning backend is configured.
var ErrNoBackend = errors.New("no reasoning backend configured")

// legacyEnv maps setting keys to the bare variable names they were read from before the
// REACTOR_ prefix existed. The prefixed name always wins.
var legacyEnv = map[string]string{
	"crawl.endpoint":      "CRAWL4AI_ENDPOINT",
	"owui.url":            "OWUI_API_URL",
	"owui.api_key":        "OWUI_API_KEY",
	"summary.model":       "DEFAULT_SUMMARY_MODEL",
	"summary.temperature": "DEFAULT_SUMMARY_TEMPERATURE",
	"openai.api_key":      "OPENAI_API_KEY",
	"gemini.api_key":      "GEMINI_API_KEY",
	"ollama.host":         "OLLAMA_HOST",
	"github.token":        "GITHUB_TOKEN",
}

// Settings is the full configuration of the CLI.
type Settings struct {
	LogLevel string `mapstructure:"log_level"`

	// Backend is the default reasoning backend selector. Empty picks the first
	// configured backend.
	Backend string `mapstructure:"backend"`

	Agent     AgentSettings     `mapstructure:"agent"`
	Summary   SummarySettings   `mapstructure:"summary"`
	Crawl     CrawlSettings     `mapstructure:"crawl"`
	OpenWebUI ProviderSettings  `mapstructure:"owui"`
	OpenAI    ProviderSettings  `mapstructure:"openai"`
	Gemini    ProviderSettings  `mapstructure:"gemini"`
	Ollama    OllamaSettings    `mapstructure:"ollama"`
	GitHub    GitHubSettings    `mapstructure:"github"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

// AgentSettings mirror reactor.AgentConfig.
type AgentSettings struct {
	MaxIterations            int           `mapstructure:"max_iterations"`
	PerStepTimeout           time.Duration `mapstructure:"per_step_timeout"`
	TotalTimeout             time.Duration `mapstructure:"total_timeout"`
	Model                    string        `mapstructure:"model"`
	Temperature              float64       `mapstructure:"temperature"`
	MaxObservationLength     int           `mapstructure:"max_observation_length"`
	MaxConsecutiveToolErrors int           `mapstructure:"max_consecutive_tool_errors"`
	MaxParallelCalls         int           `mapstructure:"max_parallel_calls"`
}

// SummarySettings configure the summarize job.
type SummarySettings struct {
	Backend     string  `mapstructure:"backend"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// CrawlSettings configure the web tools.
type CrawlSettings struct {
	Endpoint  string        `mapstructure:"endpoint"`
	RateLimit float64       `mapstructure:"rate_limit"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	WordLimit int           `mapstructure:"word_limit"`
}

// ProviderSettings configure an API-key backend.
type ProviderSettings struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OllamaSettings configure the Ollama backend.
type OllamaSettings struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// GitHubSettings configure the GitHub Models backend.
type GitHubSettings struct {
	Token string `mapstructure:"token"`
	Model string `mapstructure:"model"`
}

// TelemetrySettings configure OTLP trace export. Empty endpoint disables export.
type TelemetrySettings struct {
	Endpoint    string            `mapstructure:"endpoint"`
	Insecure    bool              `mapstructure:"insecure"`
	ServiceName string            `mapstructure:"service_name"`
	Headers     map[string]string `mapstructure:"headers"`
}

// SetDefaults registers every key with its default so env-only values unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("backend", "")

	v.SetDefault("agent.max_iterations", reactor.DefaultMaxIterations)
	v.SetDefault("agent.per_step_timeout", reactor.DefaultPerStepTimeout)
	v.SetDefault("agent.total_timeout", reactor.DefaultTotalTimeout)
	v.SetDefault("agent.model", "")
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.max_observation_length", reactor.DefaultMaxObservationLength)
	v.SetDefault("agent.max_consecutive_tool_errors", reactor.DefaultMaxConsecutiveToolErrors)
	v.SetDefault("agent.max_parallel_calls", reactor.DefaultMaxParallelCalls)

	v.SetDefault("summary.backend", "")
	v.SetDefault("summary.model", "")
	v.SetDefault("summary.temperature", 0.3)

	v.SetDefault("crawl.endpoint", "")
	v.SetDefault("crawl.rate_limit", 5.0)
	v.SetDefault("crawl.cache_size", 256)
	v.SetDefault("crawl.cache_ttl", 10*time.Minute)
	v.SetDefault("crawl.word_limit", 500)

	for _, p := range []string{"owui", "openai", "gemini"} {
		v.SetDefault(p+".url", "")
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".model", "")
	}
	v.SetDefault("ollama.host", "")
	v.SetDefault("ollama.model", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.model", "")

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.service_name", "reactor")
	v.SetDefault("telemetry.headers", map[string]string{})
}

// Load reads settings into a validated Settings. path names the config file; empty
// looks for DefaultFileName in the home directory and tolerates its absence.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix("REACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "REACTOR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, DefaultFileName))
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks values that cannot be defaulted.
func (s *Settings) Validate() error {
	if _, err := s.Level(); err != nil {
		return err
	}
	if err := s.AgentConfig().Validate(); err != nil {
		return err
	}
	if s.Agent.Temperature < 0 || s.Agent.Temperature > 1 {
		return fmt.Errorf("agent.temperature must be within [0, 1], got %v", s.Agent.Temperature)
	}
	if s.Summary.Temperature < 0 || s.Summary.Temperature > 1 {
		return fmt.Errorf("summary.temperature must be within [0, 1], got %v", s.Summary.Temperature)
	}
	if s.Backend != "" && !isSelector(s.Backend) {
		return fmt.Errorf("unknown backend %q, expected one of %s", s.Backend, strings.Join(preference, ", "))
	}
	if s.Summary.Backend != "" && !isSelector(s.Summary.Backend) {
		return fmt.Errorf("unknown summary backend %q", s.Summary.Backend)
	}
	return nil
}

// Level parses LogLevel.
func (s *Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// AgentConfig converts the agent settings for a run.
func (s *Settings) AgentConfig() reactor.AgentConfig {
	return reactor.AgentConfig{
		MaxIterations:            s.Agent.MaxIterations,
		PerStepTimeout:           s.Agent.PerStepTimeout,
		TotalTimeout:             s.Agent.TotalTimeout,
		ModelSelector:            s.Backend,
		Model:                    s.Agent.Model,
		Temperature:              s.Agent.Temperature,
		MaxObservationLength:     s.Agent.MaxObservationLength,
		MaxConsecutiveToolErrors: s.Agent.MaxConsecutiveToolErrors,
		MaxParallelCalls:         s.Agent.MaxParallelCalls,
	}
}

// SummaryConfig is the config of the summarize job. Iterations are fixed by the task
// adapter.
func (s *Settings) SummaryConfig() reactor.AgentConfig {
	cfg := s.AgentConfig()
	cfg.Temperature = s.Summary.Temperature
	if s.Summary.Model != "" {
		cfg.Model = s.Summary.Model
	}
	if s.Summary.Backend != "" {
		cfg.ModelSelector = s.Summary.Backend
	}
	return cfg
}

// Backends builds every backend with enough configuration to be usable, keyed by
// selector.
func (s *Settings) Backends(ctx context.Context) (map[string]reactor.Backend, error) {
	backends := make(map[string]reactor.Backend)

	if s.OpenWebUI.URL != "" {
		b, err := models.NewOpenWebUI(s.OpenWebUI.URL, s.OpenWebUI.APIKey, s.OpenWebUI.Model)
		if err != nil {
			return nil, err
		}
		backends[SelectorOpenWebUI] = b
	}
	if s.OpenAI.APIKey != "" {
		b, err := models.NewOpenAI(s.OpenAI.APIKey, s.OpenAI.Model, s.OpenAI.URL)
		if err != nil {
			return nil, err
		}
		backends[SelectorOpenAI] = b
	}
	if s.Gemini.APIKey != "" {
		b, err := models.NewGemini(ctx, s.Gemini.APIKey, s.Gemini.Model, s.Gemini.URL)
		if err != nil {
			return nil, err
		}
		backends[SelectorGemini] = b
	}
	if s.GitHub.Token != "" {
		b, err := models.NewGitHubModels(s.GitHub.Model, s.GitHub.Token)
		if err != nil {
			return nil, err
		}
		backends[SelectorGitHub] = b
	}
	if s.Ollama.Host != "" {
		b, err := models.NewOllama(s.Ollama.Host, s.Ollama.Model, nil)
		if err != nil {
			return nil, err
		}
		backends[SelectorOllama] = b
	}
	return backends, nil
}

// Engine builds a reasoning engine over catalog with every configured backend. The
// default is Backend when set, else the first configured one in preference order.
func (s *Settings) Engine(ctx context.Context, catalog reasoning.Catalog) (*reasoning.Engine, error) {
	backends, err := s.Backends(ctx)
	if err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: set OWUI_API_URL, OPENAI_API_KEY, GEMINI_API_KEY, GITHUB_TOKEN or OLLAMA_HOST", ErrNoBackend)
	}

	engine := reasoning.NewEngine(catalog)
	for _, selector := range preference {
		if b, ok := backends[selector]; ok {
			engine.WithBackend(selector, b)
		}
	}
	if s.Backend != "" {
		if _, ok := backends[s.Backend]; !ok {
			return nil, fmt.Errorf("%w: backend %q selected but not configured", ErrNoBackend, s.Backend)
		}
		engine.WithDefault(s.Backend)
	}
	return engine, nil
}

func isSelector(name string) bool {
	return slices.Contains(preference, name)
}
