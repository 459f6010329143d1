package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"f1livetiming/pkg/logging"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Filter is one OpenF1 query condition, e.g. date_start<=2024-03-02T15:00:00Z.
type Filter struct {
	Field string
	Op    string // "=", "<=", ">=", "<", ">"
	Value string
}

func Eq(field string, v int) Filter {
	return Filter{Field: field, Op: "=", Value: strconv.Itoa(v)}
}

func (f Filter) String() string {
	return f.Field + f.Op + url.QueryEscape(f.Value)
}

// SessionQuery bounds a /sessions lookup. Zero times are not sent.
type SessionQuery struct {
	StartAfter  time.Time
	StartBefore time.Time
	EndAfter    time.Time
}

func (q SessionQuery) filters() []Filter {
	var fs []Filter
	if !q.StartAfter.IsZero() {
		fs = append(fs, Filter{Field: "date_start", Op: ">=", Value: q.StartAfter.UTC().Format(timeLayout)})
	}
	if !q.StartBefore.IsZero() {
		fs = append(fs, Filter{Field: "date_start", Op: "<=", Value: q.StartBefore.UTC().Format(timeLayout)})
	}
	if !q.EndAfter.IsZero() {
		fs = append(fs, Filter{Field: "date_end", Op: ">=", Value: q.EndAfter.UTC().Format(timeLayout)})
	}
	return fs
}

// Client is a typed REST client for an OpenF1 compatible API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "openf1"),
	}
}

func (c *Client) Sessions(ctx context.Context, q SessionQuery) ([]Session, error) {
	var out []Session
	err := c.get(ctx, "sessions", q.filters(), &out)
	return out, err
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	var out []Driver
	err := c.get(ctx, "drivers", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) Positions(ctx context.Context, sessionKey int) ([]Position, error) {
	var out []Position
	err := c.get(ctx, "position", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]Lap, error) {
	var out []Lap
	err := c.get(ctx, "laps", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) Intervals(ctx context.Context, sessionKey int) ([]Interval, error) {
	var out []Interval
	err := c.get(ctx, "intervals", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) Stints(ctx context.Context, sessionKey int) ([]Stint, error) {
	var out []Stint
	err := c.get(ctx, "stints", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context, sessionKey int) ([]Result, error) {
	var out []Result
	err := c.get(ctx, "session_result", []Filter{Eq("session_key", sessionKey)}, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, resource string, filters []Filter, out any) error {
	op := "GET /" + resource
	u := c.baseURL + "/" + resource
	if len(filters) > 0 {
		parts := make([]string, 0, len(filters))
		for _, f := range filters {
			parts = append(parts, f.String())
		}
		u += "?" + strings.Join(parts, "&")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return newError(KindProtocol, op, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return newError(KindNetwork, op, errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(KindNetwork, op, errors.Wrap(err, "read body"))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		// OpenF1 answers 404 when a filter matches nothing
		c.logger.Debug("no records", "resource", resource)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return newError(KindNetwork, op, fmt.Errorf("unexpected status %s", resp.Status))
	default:
		return newError(KindProtocol, op, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newError(KindParse, op, errors.Wrap(err, "decode body"))
	}
	c.logger.Debug("fetched", "resource", resource, "bytes", len(body))
	return nil
}
