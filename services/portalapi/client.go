package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

const maxErrorBody = 8 << 10

// HTTPError is a non-2xx answer of the portal API.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

var _ enrollment.StatusError = (*HTTPError)(nil)

func (e *HTTPError) Error() string {
	return fmt.Sprintf("portal %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *HTTPError) HTTPStatus() int       { return e.StatusCode }
func (e *HTTPError) ServerMessage() string { return e.Message }

type (
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	createRequestBody struct {
		FormationID int `json:"formationId"`
	}
)

// Client talks to the portal REST API. It implements enrollment.Backend.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ enrollment.Backend = (*Client)(nil)

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of every request; zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if u == "" {
		return nil, errors.New("portal API base URL is required")
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a Client from conf.API.
func NewFromConfig(conf *core.Config, opts ...Option) (*Client, error) {
	opts = append([]Option{WithToken(conf.API.Token), WithTimeout(conf.API.RequestTimeout)}, opts...)
	return New(conf.API.BaseURL, opts...)
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Login authenticates and keeps the returned token for the next calls.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/users/login", LoginRequest{Username: username, Password: password}, &out); err != nil {
		return LoginResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

func (c *Client) CreateEnrollmentRequest(ctx context.Context, formationID int) error {
	return c.doJSON(ctx, http.MethodPost, "/enrollment-requests", createRequestBody{FormationID: formationID}, nil)
}

func (c *Client) ListMyEnrollmentRequests(ctx context.Context) ([]enrollment.Request, error) {
	var out []enrollment.Request
	if err := c.doJSON(ctx, http.MethodGet, "/enrollment-requests/mine", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListFormations(ctx context.Context) ([]formation.Formation, error) {
	var out []formation.Formation
	if err := c.doJSON(ctx, http.MethodGet, "/formations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFormation(ctx context.Context, id int) (formation.Formation, error) {
	var out formation.Formation
	if err := c.doJSON(ctx, http.MethodGet, "/formations/"+strconv.Itoa(id), nil, &out); err != nil {
		return formation.Formation{}, err
	}
	return out, nil
}

func (c *Client) CreateNotification(ctx context.Context, n enrollment.Notification) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications", n, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, dst interface{}) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s body", method, path)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "portal %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
		}
	}
	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

// errorMessage extracts the server's message from {"error": ...} or {"message": ...},
// falling back to the raw text, then to the status line.
func errorMessage(raw []byte, status string) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			switch v := payload[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]interface{}:
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}
