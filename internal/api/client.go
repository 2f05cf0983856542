package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnavailable reports that no daemon answered.
var ErrUnavailable = errors.New("daemon API unavailable")

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrUnavailable) || errors.As(err, &opErr)
}

// Client talks to the daemon HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for bind (host:port or URL).
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: follow requests block until the caller cancels.
		http: &http.Client{},
	}, nil
}

// Submit posts a transcription request.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/transcriptions", nil, req, &out)
	return out, err
}

// Get fetches one record. An empty group uses the daemon default.
func (c *Client) Get(ctx context.Context, groupID, id string) (Record, error) {
	var out RecordResponse
	err := c.do(ctx, http.MethodGet, "/api/transcriptions/"+url.PathEscape(id), groupQuery(groupID), nil, &out)
	return out.Record, err
}

// List fetches the most recently updated records of a group.
func (c *Client) List(ctx context.Context, groupID string, limit int) ([]Record, error) {
	values := groupQuery(groupID)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out RecordListResponse
	err := c.do(ctx, http.MethodGet, "/api/transcriptions", values, nil, &out)
	return out.Records, err
}

// History fetches a record's revisions.
func (c *Client) History(ctx context.Context, groupID, id string) (HistoryResponse, error) {
	var out HistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/transcriptions/"+url.PathEscape(id)+"/history", groupQuery(groupID), nil, &out)
	return out, err
}

// EventQuery selects a page of the bus journal.
type EventQuery struct {
	Since    uint64
	Limit    int
	Follow   bool
	GroupID  string
	RecordID string
	Topic    string
}

// Events fetches journal events after q.Since.
func (c *Client) Events(ctx context.Context, q EventQuery) (EventStreamResponse, error) {
	values := cursorQuery(q.Since, q.Limit, q.Follow)
	setIf(values, "group", q.GroupID)
	setIf(values, "record", q.RecordID)
	setIf(values, "topic", q.Topic)
	var out EventStreamResponse
	err := c.do(ctx, http.MethodGet, "/api/events", values, nil, &out)
	return out, err
}

// LogQuery selects a page of the daemon log buffer. Tail asks for the newest
// Limit lines instead of those after Since.
type LogQuery struct {
	Since         uint64
	Limit         int
	Follow        bool
	Tail          bool
	Component     string
	GroupID       string
	RecordID      string
	CorrelationID string
	Level         string
}

// Logs fetches buffered daemon log lines.
func (c *Client) Logs(ctx context.Context, q LogQuery) (LogStreamResponse, error) {
	values := cursorQuery(q.Since, q.Limit, q.Follow)
	if q.Tail {
		values.Set("tail", "1")
	}
	setIf(values, "component", q.Component)
	setIf(values, "group", q.GroupID)
	setIf(values, "record", q.RecordID)
	setIf(values, "correlation_id", q.CorrelationID)
	setIf(values, "level", q.Level)
	var out LogStreamResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &out)
	return out, err
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var out DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (NotificationResponse, error) {
	var out NotificationResponse
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, nil, &out)
	return out, err
}

func groupQuery(groupID string) url.Values {
	values := url.Values{}
	setIf(values, "group", groupID)
	return values
}

func cursorQuery(since uint64, limit int, follow bool) url.Values {
	values := url.Values{}
	if since > 0 {
		values.Set("since", strconv.FormatUint(since, 10))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if follow {
		values.Set("follow", "1")
	}
	return values
}

func setIf(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: payload.Error, Details: payload.Details}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
