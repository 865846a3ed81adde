package luma

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appLog "hearth/internal/log"
	"hearth/internal/metrics"
	"hearth/internal/model"
)

const (
	// DefaultBaseURL is the Luma public API root.
	DefaultBaseURL = "https://public-api.luma.com"

	listEventsEndpoint = "/v1/calendar/list-events"
	getSelfEndpoint    = "/v1/user/get-self"

	apiKeyHeader = "x-luma-api-key"

	// maxErrorBody caps how much of a failed response is kept for diagnostics.
	maxErrorBody = 2048
)

// Credentials identifies which calendar to read and how to authenticate.
// It is resolved once at startup and passed to every call.
type Credentials struct {
	APIKey     string
	CalendarID string
}

// Configured reports whether an API key is present.
func (c Credentials) Configured() bool {
	return c.APIKey != ""
}

// Self is the account the API key belongs to.
type Self struct {
	APIID string `json:"api_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type listEventsResponse struct {
	Entries []struct {
		APIID string            `json:"api_id"`
		Event model.RemoteEvent `json:"event"`
	} `json:"entries"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type getSelfResponse struct {
	User Self `json:"user"`
}

// Client talks to the Luma HTTP API. It holds no credentials and no state
// between calls; every method performs exactly one request.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock replaces the wall clock used for the "after" constraint.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client. Without options it targets DefaultBaseURL with
// a plain *http.Client, so only the transport defaults bound a request.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListUpcoming returns at most limit events of the calendar that start after
// the current time, in the provider's order.
//
// Errors are one of *ConfigurationError (no request issued),
// *RemoteServiceError, *NetworkError or *ParseError. There are no retries.
func (c *Client) ListUpcoming(ctx context.Context, creds Credentials, limit int) ([]model.RemoteEvent, error) {
	if limit <= 0 {
		metrics.ProviderRequests.WithLabelValues("list-events", metrics.OutcomeUnconfigured).Inc()
		return nil, &ConfigurationError{Field: "limit", Reason: "must be positive", Err: ErrInvalidLimit}
	}
	if creds.Configured() && creds.CalendarID == "" {
		metrics.ProviderRequests.WithLabelValues("list-events", metrics.OutcomeUnconfigured).Inc()
		return nil, &ConfigurationError{Field: "calendar_id", Reason: "is not configured"}
	}

	q := url.Values{}
	q.Set("calendar_id", creds.CalendarID)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("after", c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"))

	appLog.Debug("luma list events start", "calendar_id", creds.CalendarID, "limit", limit)

	var body listEventsResponse
	if err := c.get(ctx, creds, "list-events", listEventsEndpoint, q, &body); err != nil {
		return nil, err
	}

	events := make([]model.RemoteEvent, 0, len(body.Entries))
	for _, entry := range body.Entries {
		events = append(events, entry.Event)
	}
	if len(events) > limit {
		events = events[:limit]
	}

	appLog.Info("luma list events success", "calendar_id", creds.CalendarID, "count", len(events))
	return events, nil
}

// CheckConnection verifies the API key by fetching the owning account.
func (c *Client) CheckConnection(ctx context.Context, creds Credentials) (Self, error) {
	var body getSelfResponse
	if err := c.get(ctx, creds, "get-self", getSelfEndpoint, nil, &body); err != nil {
		return Self{}, err
	}
	return body.User, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, label, endpoint string, q url.Values, out any) (err error) {
	defer func() {
		metrics.ProviderRequests.WithLabelValues(label, outcome(err)).Inc()
	}()

	if !creds.Configured() {
		return &ConfigurationError{Field: "api_key", Reason: "is not configured"}
	}

	u := c.baseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &ConfigurationError{Field: "base_url", Reason: err.Error()}
	}
	req.Header.Set(apiKeyHeader, creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		return &NetworkError{Op: "GET " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteServiceError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &NetworkError{Op: "read " + endpoint, Err: err}
		}
		return &ParseError{What: label + " response", Err: err}
	}
	return nil
}

func outcome(err error) string {
	var (
		ce *ConfigurationError
		re *RemoteServiceError
		ne *NetworkError
		pe *ParseError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &ce):
		return metrics.OutcomeUnconfigured
	case errors.As(err, &re):
		return metrics.OutcomeRemoteError
	case errors.As(err, &ne):
		return metrics.OutcomeNetworkError
	case errors.As(err, &pe):
		return metrics.OutcomeParseError
	default:
		return metrics.OutcomeNetworkError
	}
}
