package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/kiosk-listings/internal/models"
	"github.com/pauljones0/kiosk-listings/internal/util"
)

// PageFetcher returns one page of an auction's listing.
type PageFetcher interface {
	FetchPage(ctx context.Context, auctionID string, page, pageSize int) (models.Page, error)
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Options struct {
	BaseURL   string
	XappToken string
	Timeout   time.Duration
	Retries   int
	// RatePerSecond paces page requests. Zero means unlimited.
	RatePerSecond float64
}

// Client fetches sale artworks from the auction API over HTTP.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	xappToken   string
	retries     int
	backoff     time.Duration
	rateLimiter *rate.Limiter
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     opts.BaseURL,
		xappToken:   opts.XappToken,
		retries:     opts.Retries,
		backoff:     time.Second,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

var _ PageFetcher = (*Client)(nil)

// FetchPage requests one page. 429 and 5xx responses are retried; the
// returned page never carries an explicit continuation, so the caller falls
// back to the short-page rule.
func (c *Client) FetchPage(ctx context.Context, auctionID string, page, pageSize int) (models.Page, error) {
	endpoint, err := c.pageURL(auctionID, page, pageSize)
	if err != nil {
		return models.Page{}, err
	}

	var records []models.RawRecord
	err = util.RetryWithBackoff(ctx, c.retries, c.backoff, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying page fetch", "auction", auctionID, "page", page, "attempt", attempt)
		}
		var fetchErr error
		records, fetchErr = c.fetchOnce(ctx, endpoint)
		return fetchErr
	})
	if err != nil {
		return models.Page{}, err
	}
	return models.Page{Records: records}, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]models.RawRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, util.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.xappToken != "" {
		req.Header.Set("X-Xapp-Token", c.xappToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
		if statusErr.Retryable() {
			return nil, statusErr
		}
		return nil, util.Permanent(statusErr)
	}

	var records []models.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to decode page body: %w", err))
	}
	return records, nil
}

func (c *Client) pageURL(auctionID string, page, pageSize int) (string, error) {
	if auctionID == "" {
		return "", errors.New("auction id is empty")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	u = u.JoinPath("api", "v1", "sale", auctionID, "sale_artworks")
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
