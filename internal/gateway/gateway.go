// Package gateway is the only package that talks to the SentriX backend over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/sentrix/internal/types"
)

// DefaultBaseURL is the production backend used when nothing else is configured.
const DefaultBaseURL = "https://sentrix-1.onrender.com"

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 512

var _ types.Gateway = (*Client)(nil)

// Client implements types.Gateway against the backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryPolicy sets the policy used for idempotent reads.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the backend at baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// send issues one request and returns the response if the status is 2xx.
// On any other status the body is drained, closed, and returned as a statusError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("api request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("sending request: %w", err)
	}
	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{
			code:       resp.StatusCode,
			body:       strings.TrimSpace(string(msg)),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp, nil
}

// read performs an idempotent GET under the retry policy and decodes the JSON body into out.
func (c *Client) read(ctx context.Context, op, path string, out any) error {
	err := c.retry.Execute(ctx, func() error {
		resp, err := c.send(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return decode(resp.Body, out)
	})
	if err != nil {
		return &NetworkError{Op: op, Method: http.MethodGet, Path: path, Err: err}
	}
	return nil
}

// write performs a single non-retried request for a user action.
func (c *Client) write(ctx context.Context, op, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return &ActionError{Op: op, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decode(resp.Body, out); err != nil {
		return &ActionError{Op: op, Method: method, Path: path, Err: err}
	}
	return nil
}

func decode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func sessionPath(id types.SessionID) string {
	return "/api/sessions/" + url.PathEscape(string(id))
}

func reportPath(id types.ReportID) string {
	return "/api/reports/" + url.PathEscape(string(id))
}

// FetchDashboard returns the current risk dataset. Missing fields are empty, never nil.
func (c *Client) FetchDashboard(ctx context.Context) (*types.DashboardData, error) {
	var data types.DashboardData
	if err := c.read(ctx, "fetch dashboard", "/api/dashboard", &data); err != nil {
		return nil, err
	}
	data.Normalize()
	return &data, nil
}

type reportsResponse struct {
	Reports []types.Report `json:"reports"`
}

// FetchReports returns every report known to the backend.
func (c *Client) FetchReports(ctx context.Context) ([]types.Report, error) {
	var body reportsResponse
	if err := c.read(ctx, "fetch reports", "/api/reports", &body); err != nil {
		return nil, err
	}
	if body.Reports == nil {
		return []types.Report{}, nil
	}
	return body.Reports, nil
}

// GetReport returns a single report.
func (c *Client) GetReport(ctx context.Context, id types.ReportID) (*types.Report, error) {
	var report types.Report
	if err := c.read(ctx, "get report", reportPath(id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SessionReports returns the reports the backend associates with a session.
func (c *Client) SessionReports(ctx context.Context, id types.SessionID) ([]types.Report, error) {
	var body reportsResponse
	if err := c.read(ctx, "session reports", sessionPath(id)+"/reports", &body); err != nil {
		return nil, err
	}
	if body.Reports == nil {
		return []types.Report{}, nil
	}
	return body.Reports, nil
}

type queryRequest struct {
	Query     string          `json:"query"`
	SessionID types.SessionID `json:"session_id"`
}

// SendQuery posts a chat query for the given session. It is not retried:
// the backend may generate and store a report for each call.
func (c *Client) SendQuery(ctx context.Context, text string, sessionID types.SessionID) (*types.QueryResponse, error) {
	const path = "/api/query"
	resp, err := c.send(ctx, http.MethodPost, path, queryRequest{Query: text, SessionID: sessionID})
	if err != nil {
		return nil, &NetworkError{Op: "send query", Method: http.MethodPost, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "send query", Method: http.MethodPost, Path: path, Err: fmt.Errorf("reading response: %w", err)}
	}
	var out types.QueryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &NetworkError{Op: "send query", Method: http.MethodPost, Path: path, Err: fmt.Errorf("parsing response: %w", err)}
	}
	out.Raw = raw
	return &out, nil
}

// DownloadReport streams the rendered report document into w and returns the
// number of bytes written.
func (c *Client) DownloadReport(ctx context.Context, id types.ReportID, w io.Writer) (int64, error) {
	path := reportPath(id) + "/download"
	var resp *http.Response
	err := c.retry.Execute(ctx, func() error {
		var err error
		resp, err = c.send(ctx, http.MethodGet, path, nil)
		return err
	})
	if err != nil {
		return 0, &NetworkError{Op: "download report", Method: http.MethodGet, Path: path, Err: err}
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &NetworkError{Op: "download report", Method: http.MethodGet, Path: path, Err: fmt.Errorf("reading body: %w", err)}
	}
	return n, nil
}

type uploadRequest struct {
	Data []json.RawMessage `json:"data"`
}

// UploadShipmentData replaces the backend's shipment dataset.
func (c *Client) UploadShipmentData(ctx context.Context, records []json.RawMessage) (*types.Ack, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	var ack types.Ack
	if err := c.write(ctx, "upload shipment data", http.MethodPost, "/api/shipment/upload", uploadRequest{Data: records}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ResetShipmentData restores the backend's built-in shipment dataset.
func (c *Client) ResetShipmentData(ctx context.Context) (*types.Ack, error) {
	var ack types.Ack
	if err := c.write(ctx, "reset shipment data", http.MethodPost, "/api/shipment/reset", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// TriggerCombinedReport asks the backend to generate a combined political and schedule report.
func (c *Client) TriggerCombinedReport(ctx context.Context) (*types.Ack, error) {
	var ack types.Ack
	if err := c.write(ctx, "generate combined report", http.MethodPost, "/api/report/combined", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

type sessionsResponse struct {
	Sessions []types.Session `json:"sessions"`
}

type sessionResponse struct {
	Session *types.Session `json:"session"`
}

type createSessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListSessions returns the session roster.
func (c *Client) ListSessions(ctx context.Context) ([]types.Session, error) {
	var body sessionsResponse
	if err := c.read(ctx, "list sessions", "/api/sessions", &body); err != nil {
		return nil, err
	}
	if body.Sessions == nil {
		return []types.Session{}, nil
	}
	return body.Sessions, nil
}

// CreateSession creates a named session.
func (c *Client) CreateSession(ctx context.Context, name, description string) (*types.Session, error) {
	return c.sessionAction(ctx, "create session", http.MethodPost, "/api/sessions",
		createSessionRequest{Name: name, Description: description})
}

// GetSession fetches one session by id.
func (c *Client) GetSession(ctx context.Context, id types.SessionID) (*types.Session, error) {
	return c.sessionAction(ctx, "get session", http.MethodGet, sessionPath(id), nil)
}

// UpdateSession changes a session's name and/or description.
func (c *Client) UpdateSession(ctx context.Context, id types.SessionID, patch types.SessionPatch) (*types.Session, error) {
	return c.sessionAction(ctx, "update session", http.MethodPut, sessionPath(id), patch)
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id types.SessionID) error {
	return c.write(ctx, "delete session", http.MethodDelete, sessionPath(id), nil, nil)
}

func (c *Client) sessionAction(ctx context.Context, op, method, path string, body any) (*types.Session, error) {
	var out sessionResponse
	if err := c.write(ctx, op, method, path, body, &out); err != nil {
		return nil, err
	}
	if out.Session == nil {
		return nil, &ActionError{Op: op, Method: method, Path: path, Err: fmt.Errorf("response has no session")}
	}
	return out.Session, nil
}
