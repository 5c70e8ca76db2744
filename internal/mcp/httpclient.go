package mcp

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

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
)

// HTTPClient implements DataSource by calling the RepBot REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type statusError struct {
	path   string
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.path, e.status, e.body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in any, want int) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != want {
		return nil, &statusError{path: path, status: resp.StatusCode, body: bytes.TrimSpace(out)}
	}

	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, params, nil, http.StatusOK)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func userPath(userID, rest string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + rest
}

func (c *HTTPClient) Catalog(ctx context.Context) ([]models.Exercise, error) {
	var entries []models.Exercise
	if err := c.get(ctx, "/api/v1/catalog", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, userID string) ([]models.Exercise, error) {
	var entries []models.Exercise
	if err := c.get(ctx, userPath(userID, "/exercises"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) ResolveExercise(ctx context.Context, userID, name string) (*models.Exercise, error) {
	var ex models.Exercise
	err := c.get(ctx, userPath(userID, "/exercises/resolve"), url.Values{"name": {name}}, &ex)
	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusNotFound {
		return nil, fmt.Errorf("resolving %q: %w", name, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (c *HTTPClient) QueryWorkoutRecords(ctx context.Context, userID string, f storage.RecordFilter) ([]models.WorkoutRecordRow, error) {
	params := url.Values{}
	if !f.Start.IsZero() {
		params.Set("start", f.Start.Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		params.Set("end", f.End.Format(time.RFC3339))
	}
	if f.Exercise != "" {
		params.Set("exercise", f.Exercise)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	var records []models.WorkoutRecordRow
	if err := c.get(ctx, userPath(userID, "/workouts"), params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, userID, text string) (conversation.Reply, error) {
	in := map[string]string{"user_id": userID, "text": text}
	body, err := c.do(ctx, http.MethodPost, "/api/v1/messages", nil, in, http.StatusOK)
	if err != nil {
		return conversation.Reply{}, err
	}
	var reply conversation.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return conversation.Reply{}, fmt.Errorf("httpclient: decode reply: %w", err)
	}
	return reply, nil
}
