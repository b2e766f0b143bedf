// Package directory resolves a user's group memberships from an external
// directory service that pages its results with @odata.nextLink.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const (
	DefaultBaseURL  = "https://graph.microsoft.com/"
	DefaultMaxPages = 100
	DefaultTimeout  = 30 * time.Second

	memberOfPath = "v1.0/me/memberOf"
)

// ErrLookupFailed wraps every error returned by GroupNames.
var ErrLookupFailed = errors.New("directory lookup failed")

// ErrTooManyPages is returned when the directory keeps returning continuation
// links past the configured page limit.
var ErrTooManyPages = errors.New("directory lookup exceeded page limit")

// StatusError is returned for a non-2xx directory response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory returned %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("directory returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

type groupRecord struct {
	DisplayName string `json:"displayName"`
}

type memberOfPage struct {
	Value    []groupRecord `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

// Client fetches group memberships. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxPages   int
	logger     *slog.Logger
}

// NewClient builds a Client on a pooled cleanhttp client. Zero values select
// the package defaults.
func NewClient(baseURL string, maxPages int, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxPages:   maxPages,
		logger:     logger,
	}
}

// GroupNames returns the display names of every group the token's user is a
// member of, in fetch order. Records without a display name are skipped. Pages
// are fetched one at a time and any failure aborts the whole lookup.
func (c *Client) GroupNames(ctx context.Context, username, token string) ([]string, error) {
	var records []groupRecord
	next := c.baseURL + memberOfPath

	for pages := 0; next != ""; pages++ {
		if pages >= c.maxPages {
			c.logger.Warn("directory lookup stopped at page limit",
				slog.String("username", username),
				slog.Int("max_pages", c.maxPages),
			)
			return nil, fmt.Errorf("%w: groups of %s: %w (%d)", ErrLookupFailed, username, ErrTooManyPages, c.maxPages)
		}

		page, err := c.fetchPage(ctx, next, token)
		if err != nil {
			return nil, fmt.Errorf("%w: groups of %s: %w", ErrLookupFailed, username, err)
		}
		records = append(records, page.Value...)
		next = page.NextLink
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.DisplayName != "" {
			names = append(names, r.DisplayName)
		}
	}

	c.logger.Debug("directory lookup complete",
		slog.String("username", username),
		slog.Int("groups", len(names)),
	)
	return names, nil
}

func (c *Client) fetchPage(ctx context.Context, url, token string) (*memberOfPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var page memberOfPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &page, nil
}
