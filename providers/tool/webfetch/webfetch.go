package webfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/taskrouter/internal/utils"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// Name is the registry name of the tool.
const Name = "web_fetch"

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "taskrouter-webfetch/1.0"
	// DefaultMaxBodySize is the default response body limit (10MB)
	DefaultMaxBodySize = 10 * 1024 * 1024
	// MaxRedirects is the number of redirects followed before giving up
	MaxRedirects = 10
)

// ErrEmptyURL is returned when no URL is given.
var ErrEmptyURL = errors.New("URL cannot be empty")

// Input holds the parameters of a fetch.
type Input struct {
	URL string `json:"url" jsonschema:"description=The URL of the web page to fetch (partial URLs like 'example.com' are accepted),required"`
	// MaxChars truncates the Markdown output; zero keeps everything
	MaxChars int `json:"max_chars,omitempty" jsonschema:"description=Maximum number of Markdown characters to return"`
	// IncludeHTML adds the raw HTML to the output
	IncludeHTML bool `json:"include_html,omitempty" jsonschema:"description=When true the raw HTML is returned alongside the Markdown"`
}

// Output holds the fetched page. URL is the final URL after redirects.
type Output struct {
	URL       string `json:"url"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated,omitempty"`
	HTML      string `json:"html,omitempty"`
}

// Fetcher performs page downloads.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	timeout     time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its CheckRedirect is kept if set.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

// WithMaxBodySize sets the response body limit in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// NewFetcher creates a Fetcher with a client tuned for slow or unresponsive
// servers: bounded dial, TLS and header timeouts, and at most MaxRedirects
// redirects.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				ForceAttemptHTTP2:     true,
			},
		}
	}
	if f.client.CheckRedirect == nil {
		client := *f.client
		client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
			}
			return nil
		}
		f.client = &client
	}
	return f
}

// New returns the web_fetch tool.
func New(opts ...Option) *tool.FuncTool[Input, Output] {
	return tool.NewTool(Name, NewFetcher(opts...).Fetch,
		tool.WithDescription("Fetches a web page and returns its content as Markdown. Accepts full or partial URLs and follows redirects."),
		tool.WithAlias("url", "query"),
	)
}

// NormalizeURL trims s and adds an https:// scheme when none is present.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return s
}

// Fetch downloads in.URL and converts it to Markdown. It fails on an empty
// URL, a non-200 status, a body larger than the configured limit, a
// conversion error, or context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, in Input) (Output, error) {
	url := NormalizeURL(in.URL)
	if url == "" {
		return Output{}, ErrEmptyURL
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	observer := observability.ProviderFromContext(ctx)
	observer.Debug(ctx, "Fetching page", observability.String("http.url", url))

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, fmt.Errorf("request timeout or canceled: %w", err)
		}
		return Output{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	body, tooLarge, err := utils.ReadLimited(resp.Body, f.maxBodySize)
	if err != nil {
		return Output{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if tooLarge {
		return Output{}, fmt.Errorf("response body exceeds maximum size of %d bytes", f.maxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return Output{}, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	out := Output{URL: resp.Request.URL.String(), Markdown: markdown}
	if in.MaxChars > 0 && len(out.Markdown) > in.MaxChars {
		out.Markdown = truncateRunes(out.Markdown, in.MaxChars)
		out.Truncated = true
	}
	if in.IncludeHTML {
		out.HTML = string(body)
	}
	observer.Debug(ctx, "Fetched page",
		observability.String("http.url", out.URL),
		observability.Int("markdown.length", len(out.Markdown)))
	return out, nil
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if n >= len(s) {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
