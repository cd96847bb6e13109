package webtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/observe"
	"github.com/blackhat-7/reactor/schema"
	"github.com/blackhat-7/reactor/toolchain"
)

const (
	// SearchToolName is the registered name of the search tool.
	SearchToolName = "web_search"
	// ScrapeToolName is the registered name of the scrape tool.
	ScrapeToolName = "web_scrape"

	// DefaultNumResults is used when the model does not ask for a result count.
	DefaultNumResults = 5
	// DefaultWordLimit caps the words kept from each result or page.
	DefaultWordLimit = 500

	maxQueries = 3
)

type searchInput struct {
	Queries    []string `json:"queries"`
	TimeRange  string   `json:"time_range"`
	Website    string   `json:"website"`
	NumResults int      `json:"num_results"`
}

type scrapeInput struct {
	URL string `json:"url"`
}

// SearchTool returns the web_search tool backed by c. wordLimit caps the words kept from
// each result's content; zero uses DefaultWordLimit.
func SearchTool(c *Client, wordLimit int) toolchain.ToolSpec {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}

	params := schema.Object(map[string]*schema.Property{
		"queries": schema.Array(
			"Search engine queries. Keywords work better than whole sentences. "+
				"Split a complex question into up to three queries.",
			schema.String("").MinLength(1).Build(),
		).MinItems(1).MaxItems(maxQueries),
		"time_range": schema.String(
			"Only use when the user asks for recent results or a time range.",
		).Enum("day", "week", "month", "year"),
		"website": schema.String(
			"Only use when the user asks for results from one site, e.g. www.example.com.",
		),
		"num_results": schema.Integer("Number of results to return.").
			Min(1).Max(10).Default(DefaultNumResults),
	}, "queries")

	return toolchain.NewTool(
		SearchToolName,
		"Search the web for unknown knowledge, news, public info, weather, etc. "+
			"Returns the title, url and content of the top results.",
		params,
		func(ctx context.Context, in searchInput) (string, error) {
			queries := make([]SearchQuery, 0, len(in.Queries))
			for _, q := range in.Queries {
				queries = append(queries, SearchQuery{Query: q, TimeRange: in.TimeRange, Website: in.Website})
			}

			results, err := c.SearchAll(ctx, queries)
			if err != nil {
				return "", &reactor.ToolExecutionError{Tool: SearchToolName, Detail: err.Error(), Err: err}
			}

			n := in.NumResults
			if n <= 0 {
				n = DefaultNumResults
			}
			return formatResults(results, n, wordLimit), nil
		},
	)
}

// ScrapeTool returns the web_scrape tool backed by c. wordLimit caps the words kept from
// the page; zero uses DefaultWordLimit.
func ScrapeTool(c *Client, wordLimit int) toolchain.ToolSpec {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}

	params := schema.Object(map[string]*schema.Property{
		"url": schema.String("Absolute URL of the page to read.").Format("uri"),
	}, "url")

	return toolchain.NewTool(
		ScrapeToolName,
		"Read the main text content of a web page.",
		params,
		func(ctx context.Context, in scrapeInput) (string, error) {
			page, err := c.Scrape(ctx, in.URL)
			if err != nil {
				return "", &reactor.ToolExecutionError{Tool: ScrapeToolName, Detail: err.Error(), Err: err}
			}

			var sb strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&sb, "Title: %s\n", page.Title)
			}
			fmt.Fprintf(&sb, "URL: %s\n\n", page.URL)
			sb.WriteString(observe.TruncateWords(page.Content, wordLimit))
			return sb.String(), nil
		},
	)
}

func formatResults(results []SearchResult, n, wordLimit int) string {
	if len(results) == 0 {
		return "No results found."
	}
	if len(results) > n {
		results = results[:n]
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s", i+1, strings.TrimSpace(r.Title), r.URL,
			observe.TruncateWords(r.Content, wordLimit))
	}
	return sb.String()
}
