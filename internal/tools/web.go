package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/ashutoshrp06/brainhands/internal/types"
)

const (
	defaultTavilyURL  = "https://api.tavily.com/search"
	maxFetchSize      = 50 * 1024
	maxPageSize       = 5 << 20
	fetchTimeout      = 30 * time.Second
	defaultNumResults = 5
)

// SearchTool searches the web using the Tavily search API. The API key comes
// from the execution context so each request can bring its own.
type SearchTool struct {
	Endpoint string
	Client   *http.Client
}

func (t *SearchTool) Name() string { return "search_web" }

func (t *SearchTool) Execute(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	query := stringParam(params, "query")
	if query == "" {
		return failure("query is required"), nil
	}
	if ec == nil || ec.SearchAPIKey == "" {
		return failure("web search is not available (no search API key configured)"), nil
	}

	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = defaultTavilyURL
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        ec.SearchAPIKey,
		Query:         query,
		MaxResults:    defaultNumResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search_web: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search_web: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("search_web: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search_web: API returned %d: %s", resp.StatusCode, string(msg))
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("search_web: parse response: %w", err)
	}

	results := make([]map[string]any, 0, len(result.Results))
	var b strings.Builder
	for i, r := range result.Results {
		results = append(results, map[string]any{"title": r.Title, "url": r.URL, "content": r.Content})
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
	}

	msg := "No results found."
	if len(results) > 0 {
		msg = fmt.Sprintf("Found %d results for %q", len(results), query)
	}
	return &Output{
		Success: true,
		Message: msg,
		Data: map[string]any{
			"query":   query,
			"answer":  result.Answer,
			"results": results,
			"summary": b.String(),
		},
	}, nil
}

func (t *SearchTool) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return &http.Client{Timeout: fetchTimeout}
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// FetchTool fetches a URL and extracts readable content. At most MaxBytes
// (default 5 MiB) of an HTML page are handed to readability.
type FetchTool struct {
	Client   *http.Client
	MaxBytes int64
}

func (t *FetchTool) Name() string { return "read_webpage" }

func (t *FetchTool) Execute(ctx context.Context, params map[string]any, _ *types.ExecutionContext) (*Output, error) {
	rawURL := stringParam(params, "url")
	if rawURL == "" {
		return failure("url is required"), nil
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return failure("invalid URL %q", rawURL), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("read_webpage: %w", err)
	}
	req.Header.Set("User-Agent", "brainhands/1.0")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("read_webpage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure("HTTP %d fetching %s", resp.StatusCode, rawURL), nil
	}

	limit := t.MaxBytes
	if limit <= 0 {
		limit = maxPageSize
	}

	title := ""
	var text string
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		article, err := readability.FromReader(io.LimitReader(resp.Body, limit), parsedURL)
		if err != nil {
			return nil, fmt.Errorf("read_webpage: parse: %w", err)
		}
		var buf bytes.Buffer
		if err := article.RenderText(&buf); err != nil {
			return nil, fmt.Errorf("read_webpage: render: %w", err)
		}
		title = article.Title()
		text = buf.String()
	} else {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(maxFetchSize)+1))
		text = string(body)
	}

	words := len(strings.Fields(text))
	if len(text) > maxFetchSize {
		cut := maxFetchSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n... [truncated]"
	}

	return &Output{
		Success: true,
		Message: fmt.Sprintf("Read %d words from %s", words, rawURL),
		Data:    map[string]any{"url": rawURL, "title": title, "text": text, "words": words},
	}, nil
}
