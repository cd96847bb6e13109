package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackhat-7/reactor/task"
	"github.com/blackhat-7/reactor/toolchain"
	"github.com/blackhat-7/reactor/webtools"
)

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question, using the web tools when needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loop, err := a.loop(cmd.Context())
			if err != nil {
				return err
			}
			result := loop.Run(cmd.Context(), strings.Join(args, " "), a.settings.AgentConfig())
			printResult(a.out, result)
			if !result.Succeeded() {
				return fmt.Errorf("run %s", result.Status)
			}
			return nil
		},
	}
}

func newSummarizeCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "summarize [text]",
		Short: "Summarize text from the arguments, a file or stdin",
		Long: `Summarize text in a single reasoning step.

Examples:
  reactor summarize "long text..."
  reactor summarize -f article.txt
  curl -s https://example.com/post.txt | reactor summarize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			engine, err := a.engine(cmd.Context(), toolchain.NewRegistry())
			if err != nil {
				return err
			}
			adapter := task.NewAdapter(engine).
				WithDefaults(a.settings.SummaryConfig()).
				WithLogger(a.logger).
				WithHooks(a.hooks())

			summary, err := adapter.Summarize(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the text from a file")
	return cmd
}

// readInput returns the joined args, else the file contents, else stdin.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("nothing to summarize")
	}
	return text, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		timeRange  string
		website    string
		numResults int
	)

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Run the web_search tool directly, one query per argument",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"queries": args, "num_results": numResults}
			if timeRange != "" {
				params["time_range"] = timeRange
			}
			if website != "" {
				params["website"] = website
			}
			return a.invokeTool(cmd, webtools.SearchToolName, params)
		},
	}

	cmd.Flags().StringVar(&timeRange, "time-range", "", "day, week, month or year")
	cmd.Flags().StringVar(&website, "website", "", "restrict results to one site")
	cmd.Flags().IntVarP(&numResults, "num", "n", webtools.DefaultNumResults, "number of results")
	return cmd
}

func newScrapeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>",
		Short: "Run the web_scrape tool directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invokeTool(cmd, webtools.ScrapeToolName, map[string]any{"url": args[0]})
		},
	}
}

func (a *app) invokeTool(cmd *cobra.Command, name string, args map[string]any) error {
	if a.noTools {
		return errors.New("web tools are disabled by --no-tools")
	}
	registry, err := a.registry()
	if err != nil {
		return err
	}
	if !registry.Has(name) {
		return errors.New("web tools need a crawl endpoint: set CRAWL4AI_ENDPOINT or crawl.endpoint")
	}

	inv, err := registry.Invoke(cmd.Context(), name, args, a.settings.AgentConfig().Normalize().PerStepTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, inv.Output)
	a.logger.Debug("tool finished", "tool", name, "duration", inv.Duration)
	return nil
}
