package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackhat-7/reactor/agent"
	"github.com/blackhat-7/reactor/config"
	"github.com/blackhat-7/reactor/hooks"
	"github.com/blackhat-7/reactor/reasoning"
	"github.com/blackhat-7/reactor/toolchain"
	"github.com/blackhat-7/reactor/webtools"
)

// app is the state shared by every command, built in PersistentPreRunE.
type app struct {
	v          *viper.Viper
	configPath string
	noTools    bool
	verbose    bool

	settings *config.Settings
	logger   *slog.Logger
	shutdown func(context.Context) error
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), out: os.Stdout}

	cmd := &cobra.Command{
		Use:           "reactor",
		Short:         "Reason-act-observe agents on the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.shutdown(ctx)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $HOME/"+config.DefaultFileName+")")
	flags.String("backend", "", "reasoning backend: owui, openai, gemini, github or ollama")
	flags.String("model", "", "model identifier passed to the backend")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Int("max-iterations", 0, "maximum tool calls per run")
	flags.Float64("temperature", 0, "sampling temperature in [0, 1]")
	flags.BoolVar(&a.noTools, "no-tools", false, "run without the web tools")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print each step and tool call")

	for key, flag := range map[string]string{
		"backend":              "backend",
		"agent.model":          "model",
		"log_level":            "log-level",
		"agent.max_iterations": "max-iterations",
		"agent.temperature":    "temperature",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newAskCmd(a),
		newSummarizeCmd(a),
		newChatCmd(a),
		newSearchCmd(a),
		newScrapeCmd(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	settings, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.settings = settings

	level, _ := settings.Level()
	a.logger = newLogger(os.Stderr, level)
	slog.SetDefault(a.logger)

	shutdown, err := setupTracing(ctx, settings.Telemetry)
	if err != nil {
		a.logger.Warn("tracing disabled", "err", err)
		return nil
	}
	a.shutdown = shutdown
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// webClient builds the crawl client, or nil when no endpoint is configured.
func (a *app) webClient() (*webtools.Client, error) {
	crawl := a.settings.Crawl
	if crawl.Endpoint == "" {
		return nil, nil
	}
	return webtools.NewClient(crawl.Endpoint,
		webtools.WithRateLimit(crawl.RateLimit, max(1, int(crawl.RateLimit))),
		webtools.WithCache(crawl.CacheSize, crawl.CacheTTL),
		webtools.WithLogger(a.logger),
	)
}

// registry registers the web tools unless disabled or unconfigured.
func (a *app) registry() (*toolchain.Registry, error) {
	registry := toolchain.NewRegistry()
	if a.noTools {
		return registry, nil
	}

	client, err := a.webClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.logger.Debug("web tools disabled: no crawl endpoint configured")
		return registry, nil
	}
	wordLimit := a.settings.Crawl.WordLimit
	return registry.MustRegister(
		webtools.SearchTool(client, wordLimit),
		webtools.ScrapeTool(client, wordLimit),
	), nil
}

func (a *app) engine(ctx context.Context, catalog reasoning.Catalog) (*reasoning.Engine, error) {
	return a.settings.Engine(ctx, catalog)
}

// hooks returns the hooks every run gets: slog logging, plus step output when verbose.
func (a *app) hooks() *hooks.Registry {
	registry := hooks.NewRegistry().Register(hooks.NewLogging(a.logger))
	if a.verbose {
		registry.Register(newProgressHook(a.out))
	}
	return registry
}

// loop builds an agent loop with the configured tools and backends.
func (a *app) loop(ctx context.Context) (*agent.Loop, error) {
	tools, err := a.registry()
	if err != nil {
		return nil, err
	}
	engine, err := a.engine(ctx, tools)
	if err != nil {
		return nil, err
	}
	return agent.NewLoop(engine, tools).
		WithHooks(a.hooks()).
		WithLogger(a.logger), nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
