package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leofalp/taskrouter/internal/utils"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// Name is the registry name of the tool.
const Name = "search"

const (
	// DefaultEndpoint is the Instant Answer API base URL
	DefaultEndpoint = "https://api.duckduckgo.com/"
	// DefaultMaxTopics is how many related topics make it into a summary
	DefaultMaxTopics = 5
	// NoResults is the summary used when the API returns nothing useful
	NoResults = "No results found for this query."

	maxResponseSize = 2 * 1024 * 1024
	siteBase        = "https://duckduckgo.com"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Input holds the search query.
type Input struct {
	Query string `json:"query" jsonschema:"description=The search query to look up,required"`
}

// Source is a link backing part of the summary.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Output is the condensed search result.
type Output struct {
	Query   string   `json:"query"`
	Heading string   `json:"heading,omitempty"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources,omitempty"`
}

// Client queries the Instant Answer API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	maxTopics  int
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMaxTopics sets how many related topics are summarised.
func WithMaxTopics(n int) Option {
	return func(c *Client) {
		c.maxTopics = n
	}
}

// NewClient creates a Client for the public API.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxTopics:  DefaultMaxTopics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New returns the search tool.
func New(opts ...Option) *tool.FuncTool[Input, Output] {
	return tool.NewTool(Name, NewClient(opts...).Search,
		tool.WithDescription("Search the web using DuckDuckGo. Returns instant answers, abstracts and related topics for a query."),
		tool.WithAlias("query", "message"),
	)
}

// Search runs in.Query against the API and summarises the response.
func (c *Client) Search(ctx context.Context, in Input) (Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return Output{}, ErrEmptyQuery
	}

	resp, err := c.fetch(ctx, query)
	if err != nil {
		return Output{}, err
	}

	out := Output{Query: query, Heading: resp.Heading}
	var parts []string
	if resp.AbstractText != "" {
		parts = append(parts, "Abstract: "+resp.AbstractText)
		if resp.AbstractURL != "" {
			out.Sources = append(out.Sources, Source{Text: resp.AbstractSource, URL: resp.AbstractURL})
		}
	}
	if resp.Answer != "" {
		parts = append(parts, "Answer: "+resp.Answer)
	}
	if resp.Definition != "" {
		parts = append(parts, "Definition: "+resp.Definition)
		if resp.DefinitionURL != "" {
			out.Sources = append(out.Sources, Source{Text: resp.DefinitionSource, URL: resp.DefinitionURL})
		}
	}

	var topics []string
	for _, topic := range flattenTopics(resp.RelatedTopics) {
		if len(topics) >= c.maxTopics {
			break
		}
		if topic.Text == "" {
			continue
		}
		topics = append(topics, topic.Text)
		if topic.FirstURL != "" {
			out.Sources = append(out.Sources, Source{Text: topic.Text, URL: absoluteURL(topic.FirstURL)})
		}
	}
	if len(topics) > 0 {
		parts = append(parts, "Related topics: "+strings.Join(topics, "; "))
	}

	out.Summary = strings.Join(parts, "\n\n")
	if out.Summary == "" {
		out.Summary = NoResults
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, query string) (*apiResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "taskrouter-search/1.0")

	observability.ProviderFromContext(ctx).Debug(ctx, "Querying DuckDuckGo",
		observability.String("search.query", query))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer utils.CloseWithLog(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d", httpResp.StatusCode)
	}

	body, truncated, err := utils.ReadLimited(httpResp.Body, maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if truncated {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseSize)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &parsed, nil
}

// apiResponse is the subset of the Instant Answer payload the summary uses.
type apiResponse struct {
	Heading          string  `json:"Heading"`
	AbstractText     string  `json:"AbstractText"`
	AbstractSource   string  `json:"AbstractSource"`
	AbstractURL      string  `json:"AbstractURL"`
	Answer           string  `json:"Answer"`
	Definition       string  `json:"Definition"`
	DefinitionSource string  `json:"DefinitionSource"`
	DefinitionURL    string  `json:"DefinitionURL"`
	RelatedTopics    []topic `json:"RelatedTopics"`
}

// topic is either a single result or a named group of results.
type topic struct {
	FirstURL string  `json:"FirstURL"`
	Text     string  `json:"Text"`
	Name     string  `json:"Name"`
	Topics   []topic `json:"Topics"`
}

// flattenTopics expands topic groups in order.
func flattenTopics(topics []topic) []topic {
	var out []topic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// absoluteURL resolves site-relative links against duckduckgo.com.
func absoluteURL(path string) string {
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		return siteBase + path
	}
	return path
}
