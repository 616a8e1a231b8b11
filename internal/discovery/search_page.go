package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/retry"
)

// Search page constants
const (
	DefaultSearchURL     = "https://www.youtube.com/results"
	DefaultSearchTimeout = 15 * time.Second
	SearchQueryParam     = "search_query"
	MaxPageBytes         = 8 << 20
	fetchAttempts        = 3
	fetchBackoff         = time.Second
	browserUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	browserAcceptHeader  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	browserLanguage      = "en-US,en;q=0.9"
)

// watchPattern matches watch links in raw markup. The identifier is exactly
// eleven non-space characters.
var watchPattern = regexp.MustCompile(`watch\?v=(\S{11})`)

// SearchPageSource scrapes identifiers from one search results page.
type SearchPageSource struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

var _ Source = (*SearchPageSource)(nil)

// Option configures a SearchPageSource.
type Option func(*SearchPageSource)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(s *SearchPageSource) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// WithBackoff sets the wait between fetch attempts.
func WithBackoff(backoff time.Duration) Option {
	return func(s *SearchPageSource) {
		s.backoff = backoff
	}
}

// NewSearchPageSource creates a source for the given results page URL.
func NewSearchPageSource(baseURL string, opts ...Option) (*SearchPageSource, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid search url %q: %w", baseURL, err)
	}
	source := &SearchPageSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultSearchTimeout},
		attempts:   fetchAttempts,
		backoff:    fetchBackoff,
	}
	for _, opt := range opts {
		opt(source)
	}
	return source, nil
}

// Candidates fetches the results page for query and returns every identifier
// in markup order, duplicates included.
func (s *SearchPageSource) Candidates(ctx context.Context, query string) (model.SearchResult, error) {
	endpoint, err := s.searchURL(query)
	if err != nil {
		return model.SearchResult{}, err
	}

	policy := retry.Policy{MaxAttempts: s.attempts, Backoff: s.backoff}
	body, err := retry.WithRetries(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		return s.fetch(ctx, endpoint)
	})
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("fetch search page: %w", err)
	}

	return model.SearchResult{Query: query, IDs: ExtractIDs(body)}, nil
}

func (s *SearchPageSource) searchURL(query string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %q: %w", s.baseURL, err)
	}
	values := u.Query()
	values.Set(SearchQueryParam, query)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (s *SearchPageSource) fetch(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAcceptHeader)
	req.Header.Set("Accept-Language", browserLanguage)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", statusErr
		}
		return "", retry.Permanent(statusErr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// ExtractIDs returns every identifier matched in markup, in order of appearance.
func ExtractIDs(markup string) []string {
	matches := watchPattern.FindAllStringSubmatch(markup, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}
