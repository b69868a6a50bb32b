// Package client is the dashboard's typed view of the focusd HTTP API.
package client

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

	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/stats"
)

var ErrNotFound = errors.New("client: not found")

// APIError is a non-2xx response other than 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("focusd api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) ListTasks(ctx context.Context, state model.TaskState) ([]model.Task, error) {
	path := "/api/tasks"
	if state != "" {
		path += "?state=" + url.QueryEscape(string(state))
	}
	var out []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, in api.TaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in api.TaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ReportFocus is what the extension does; the dashboard only uses it in
// tests and tooling.
func (c *Client) ReportFocus(ctx context.Context, appID, title string) (*model.CurrentFocus, error) {
	var out model.CurrentFocus
	found, err := c.doOptional(ctx, http.MethodPost, "/api/focus", api.FocusReport{AppID: appID, Title: title}, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// CurrentFocus returns nil when nothing is focused.
func (c *Client) CurrentFocus(ctx context.Context) (*model.CurrentFocus, error) {
	var out model.CurrentFocus
	found, err := c.doOptional(ctx, http.MethodGet, "/api/focus/current", nil, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FocusStatus(ctx context.Context, taskID string) (api.FocusStatus, error) {
	path := "/api/focus/status"
	if taskID != "" {
		path += "?task_id=" + url.QueryEscape(taskID)
	}
	var out api.FocusStatus
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// GetPomodoro returns ErrNotFound when the client has never saved a state.
func (c *Client) GetPomodoro(ctx context.Context, clientID string) (pomodoro.State, error) {
	var out pomodoro.State
	err := c.do(ctx, http.MethodGet, "/api/pomodoro/"+url.PathEscape(clientID), nil, &out)
	return out, err
}

func (c *Client) PutPomodoro(ctx context.Context, clientID string, s pomodoro.State) error {
	return c.do(ctx, http.MethodPut, "/api/pomodoro/"+url.PathEscape(clientID), s, nil)
}

func (c *Client) FocusCompleted(ctx context.Context, focusSeconds int) (stats.DayPoint, error) {
	var out stats.DayPoint
	err := c.do(ctx, http.MethodPost, "/api/stats/focus-completed", api.FocusCompleted{FocusSeconds: focusSeconds}, &out)
	return out, err
}

func (c *Client) DailyStats(ctx context.Context, days int) ([]stats.DayPoint, error) {
	var out []stats.DayPoint
	err := c.do(ctx, http.MethodGet, "/api/stats/daily?days="+strconv.Itoa(days), nil, &out)
	return out, err
}

// Usage returns the usage report; zero from or to use the server defaults.
func (c *Client) Usage(ctx context.Context, from, to time.Time) (api.UsageReport, error) {
	var out api.UsageReport
	err := c.do(ctx, http.MethodGet, "/api/stats/usage"+windowQuery(from, to), nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, from, to time.Time) ([]api.HistoryEntry, error) {
	var out []api.HistoryEntry
	err := c.do(ctx, http.MethodGet, "/api/history"+windowQuery(from, to), nil, &out)
	return out, err
}

func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &out)
	return out, err
}

func (c *Client) PutSettings(ctx context.Context, in map[string]string) (map[string]string, error) {
	out := map[string]string{}
	err := c.do(ctx, http.MethodPut, "/api/settings", in, &out)
	return out, err
}

func windowQuery(from, to time.Time) string {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	found, err := c.doOptional(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if !found && out != nil {
		return fmt.Errorf("%s %s: empty response", method, path)
	}
	return nil
}

// doOptional reports found=false for 204 responses.
func (c *Client) doOptional(ctx context.Context, method, path string, body, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return true, nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
