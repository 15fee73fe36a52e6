// Package gateway is the HTTP client for the time-clock backend: employee
// snapshots, punch submission and client log shipping.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client talks to the backend over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	location *time.Location
	logger   logger.Logger
}

// NewClient returns a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  10 * time.Second,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("gateway")
	}
	return c
}

// FetchEmployee loads the employee snapshot for id.
func (c *Client) FetchEmployee(ctx context.Context, id string) (*model.FetchResult, error) {
	var body EmployeeResponse
	if err := c.do(ctx, http.MethodGet, "/get_employee_data/"+url.PathEscape(id), nil, &body); err != nil {
		return nil, err
	}
	if body.Employee == nil {
		return nil, &model.GatewayError{Kind: model.ErrMalformedPayload, Reason: "response carried no employee"}
	}
	return body.ToModel(c.location), nil
}

// SubmitPunch sends one punch. A nil time entry code is sent as null.
func (c *Client) SubmitPunch(ctx context.Context, req model.PunchRequest) (*model.PunchResponse, error) {
	in := PunchRequestDTO{
		WorkerID:       req.EmployeeID,
		PositionNumber: req.PositionNumber,
		ClockEventType: string(req.ClockEventType),
		TimeEntryCode:  req.TimeEntryCode,
	}
	var out PunchResponseDTO
	if err := c.do(ctx, http.MethodPost, "/punch/"+url.PathEscape(req.EmployeeID), in, &out); err != nil {
		return nil, err
	}
	return &model.PunchResponse{
		WrittenToTCD:   string(out.WrittenToTCD),
		PunchTime:      out.PunchTime,
		ClockEventType: out.ClockEventType,
		Hostname:       out.Hostname,
	}, nil
}

// SendLog posts one client log entry. The response body is ignored.
func (c *Client) SendLog(ctx context.Context, entry model.LogEntry) error {
	in := LogEntryDTO{
		Time:    entry.Time.Format(time.RFC3339),
		Message: entry.Message,
		ByuID:   entry.EmployeeID,
		Button:  entry.Button,
		Notify:  strconv.FormatBool(entry.Notify),
	}
	return c.do(ctx, http.MethodPost, "/log", in, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(path, err, start)
		return &model.GatewayError{Kind: model.ErrUnreachable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		gwErr := &model.GatewayError{Kind: model.ErrUnreachable, Status: resp.StatusCode, Err: err}
		c.record(path, gwErr, start)
		return gwErr
	}

	if err := classify(resp.StatusCode, data); err != nil {
		c.record(path, err, start)
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			gwErr := &model.GatewayError{Kind: model.ErrMalformedPayload, Status: resp.StatusCode, Err: err}
			c.record(path, gwErr, start)
			return gwErr
		}
	}
	c.logger.Debug(ctx, "upstream call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Int("duration_ms", int(time.Since(start).Milliseconds())),
	)
	return nil
}

// classify maps a non-2xx response to a GatewayError.
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	reason := reasonOf(body)
	switch status {
	case http.StatusNotFound:
		return &model.GatewayError{Kind: model.ErrNotFound, Status: status, Reason: reason}
	case http.StatusServiceUnavailable:
		kind := model.ErrUpstreamUnavailable
		if strings.HasPrefix(strings.ToLower(reason), "no worker") {
			kind = model.ErrNoWorker
		}
		return &model.GatewayError{Kind: kind, Status: status, Reason: reason}
	default:
		return &model.GatewayError{Kind: model.ErrUnexpectedStatus, Status: status, Reason: reason}
	}
}

func reasonOf(body []byte) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) record(path string, err error, start time.Time) {
	kind := "error"
	var gwErr *model.GatewayError
	if errors.As(err, &gwErr) {
		kind = strings.ReplaceAll(gwErr.Kind.Error(), " ", "_")
	}
	endpoint := path
	if i := strings.Index(path[1:], "/"); i >= 0 {
		endpoint = path[:i+1]
	}
	metrics.RecordErrorByComponent("gateway", kind)
	metrics.RecordErrorLatency("gateway", kind, float64(time.Since(start).Milliseconds()))
	c.logger.Warn(context.Background(), "upstream call failed",
		logger.String("endpoint", endpoint),
		logger.Error(err),
	)
}
