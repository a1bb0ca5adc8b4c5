package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSearchURL is the Tavily search endpoint.
const DefaultSearchURL = "https://api.tavily.com/search"

// SearchConfig configures the web_search tool.
type SearchConfig struct {
	// APIKey is the Tavily API key. Required.
	APIKey string
	// BaseURL overrides the search endpoint.
	BaseURL string
	// MaxResults caps the results per query (default: 5).
	MaxResults int
	// RequestsPerMinute throttles outgoing searches (default: 30).
	RequestsPerMinute int
	// Client is the HTTP client used for requests.
	Client *http.Client
	// MaxResponseSize bounds the response body read (default: 1MB).
	MaxResponseSize int64
}

func (c *SearchConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultSearchURL
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 30
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = 1024 * 1024
	}
}

// SearchArgs are the parameters of the web_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results to return"`
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// WebSearch returns a web_search tool that queries the Tavily API.
func WebSearch(cfg SearchConfig) (Descriptor, error) {
	if cfg.APIKey == "" {
		return Descriptor{}, fmt.Errorf("tool: web_search requires an API key")
	}
	cfg.applyDefaults()

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)

	return Func("web_search",
		"Search the web for current information and return the top results.",
		func(ctx context.Context, args SearchArgs) (string, error) {
			query := strings.TrimSpace(args.Query)
			if query == "" {
				return "", fmt.Errorf("query is required")
			}
			n := cfg.MaxResults
			if args.MaxResults > 0 && args.MaxResults < n {
				n = args.MaxResults
			}
			if err := limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit: %w", err)
			}
			return search(ctx, &cfg, query, n)
		}), nil
}

func search(ctx context.Context, cfg *SearchConfig, query string, n int) (string, error) {
	body, err := json.Marshal(searchRequest{Query: query, MaxResults: n, SearchDepth: "basic"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out searchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}

	var b strings.Builder
	if out.Answer != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", out.Answer)
	}
	for i, r := range out.Results {
		if i >= n {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, strings.TrimSpace(r.Content))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
