// Package api is the HTTP client for the SynergySphere REST API.
package api

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

	"github.com/google/uuid"
	"github.com/synergysphere/sphere/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// RequestIDHeader carries a per-request id for correlating client and
// server logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client wraps HTTP calls to the SynergySphere API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken changes the bearer token, e.g. after login or logout.
func (c *Client) SetToken(token string) {
	c.token = token
}

// --- Resources ---

// List fetches every resource of a kind.
func (c *Client) List(ctx context.Context, kind models.Kind) ([]models.Resource, error) {
	op := "list " + kind.Plural()
	var items []models.Resource
	if err := c.do(ctx, op, http.MethodGet, "/api/"+kind.Plural(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Resource{}
	}
	return items, nil
}

// Create posts a new resource and returns the canonical record with its
// server-assigned id.
func (c *Client) Create(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	op := "create " + string(kind)
	var out models.Resource
	if err := c.do(ctx, op, http.MethodPost, "/api/"+kind.Plural(), r, &out); err != nil {
		return nil, err
	}
	if out.ID.IsZero() {
		return nil, &DecodeError{Op: op, Err: fmt.Errorf("response has no id")}
	}
	return &out, nil
}

// Update sends the full record to replace the stored one.
func (c *Client) Update(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	op := "update " + string(kind)
	if r.ID.IsZero() {
		return nil, &models.ValidationError{Field: "id", Message: kind.Label() + " has no id"}
	}
	path := "/api/" + kind.Plural() + "/" + url.PathEscape(r.ID.String())
	var out models.Resource
	if err := c.do(ctx, op, http.MethodPut, path, r, &out); err != nil {
		return nil, err
	}
	if out.ID.IsZero() {
		out.ID = r.ID
	}
	return &out, nil
}

// Get fetches one resource by id.
func (c *Client) Get(ctx context.Context, kind models.Kind, id models.ID) (*models.Resource, error) {
	op := "get " + string(kind)
	path := "/api/" + kind.Plural() + "/" + url.PathEscape(id.String())
	var out models.Resource
	if err := c.do(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddProjectMember adds a user to a project. Only the project owner may do
// this; the server answers 409 for an existing member.
func (c *Client) AddProjectMember(ctx context.Context, projectID, userID models.ID) (*models.Member, error) {
	path := "/api/projects/" + url.PathEscape(projectID.String()) + "/members?" +
		url.Values{"user_id": {userID.String()}}.Encode()
	var out models.Member
	if err := c.do(ctx, "add project member", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects fetches the projects the caller belongs to.
func (c *Client) ListProjects(ctx context.Context) ([]models.Resource, error) {
	return c.List(ctx, models.KindProject)
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, r models.Resource) (*models.Resource, error) {
	return c.Create(ctx, models.KindProject, r)
}

// UpdateProject replaces a project.
func (c *Client) UpdateProject(ctx context.Context, r models.Resource) (*models.Resource, error) {
	return c.Update(ctx, models.KindProject, r)
}

// ListTasks fetches all tasks.
func (c *Client) ListTasks(ctx context.Context) ([]models.Resource, error) {
	return c.List(ctx, models.KindTask)
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, r models.Resource) (*models.Resource, error) {
	return c.Create(ctx, models.KindTask, r)
}

// UpdateTask replaces a task.
func (c *Client) UpdateTask(ctx context.Context, r models.Resource) (*models.Resource, error) {
	return c.Update(ctx, models.KindTask, r)
}

// --- Users ---

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult is the server's acknowledgement of a registration.
type RegisterResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &models.ValidationError{Message: "Name, email and password are required"}
	}
	var out RegisterResult
	if err := c.do(ctx, "register", http.MethodPost, "/api/users/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult holds the session token and identity returned by login.
type LoginResult struct {
	Token string
	User  models.User
}

// loginResponse accepts both {"token", "user"} and the flatter
// {"access_token", "id", "name", ...} shapes.
type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
	ID          models.ID    `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Role        string       `json:"role"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &models.ValidationError{Message: "Email and password are required"}
	}
	var resp loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/users/login", req, &resp); err != nil {
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return nil, &DecodeError{Op: "login", Err: fmt.Errorf("response has no token")}
	}

	user := models.User{ID: resp.ID, Name: resp.Name, Email: resp.Email, Role: resp.Role}
	if resp.User != nil {
		user = *resp.User
	}
	if user.Email == "" {
		user.Email = req.Email
	}
	return &LoginResult{Token: token, User: user}, nil
}

// CheckHealth checks if the API is reachable and healthy.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	var health struct {
		OK     bool   `json:"ok"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &health); err != nil {
		return false, err
	}
	return health.OK || health.Status == "ok", nil
}

// do performs one request. A nil body sends no payload; a nil out discards
// the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "op", op, "request_id", reqID, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// errorMessage extracts a user-facing message from an error body. It looks
// at "message" first, then "detail" and "error".
func errorMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
