// Package apisdk is the HTTP client the admin server uses to reach the
// senior care REST backend.
package apisdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/models"
)

// Client talks JSON to the backend. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the backend at baseURL (e.g. http://backend:8081).
// timeout bounds every request.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "apisdk")
	return c
}

// SeniorUserPatch is the update body. Nil fields are sent as JSON null.
type SeniorUserPatch struct {
	Progress     *string `json:"progress"`
	UserID       *string `json:"user_id"`
	HealthPlanID *string `json:"health_plan_id"`
}

// ListParams filters list endpoints.
type ListParams struct {
	Query  string
	Limit  int
	Offset int
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// UserProfile is the authorization profile of a user.
type UserProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// GetSeniorUserByID fetches one senior user.
// GET /senior-users/{id}
func (c *Client) GetSeniorUserByID(ctx context.Context, id string) (*models.SeniorUser, error) {
	var out models.SeniorUser
	if err := c.do(ctx, http.MethodGet, "/senior-users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get senior user %s", id)
	}
	return &out, nil
}

// UpdateSeniorUserByID replaces the editable fields of a senior user and
// returns the record as stored by the backend.
// PUT /senior-users/{id}
func (c *Client) UpdateSeniorUserByID(ctx context.Context, id string, patch SeniorUserPatch) (*models.SeniorUser, error) {
	var out models.SeniorUser
	if err := c.do(ctx, http.MethodPut, "/senior-users/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, errors.Wrapf(err, "update senior user %s", id)
	}
	return &out, nil
}

// GetSeniorUsers lists senior users.
// GET /senior-users
func (c *Client) GetSeniorUsers(ctx context.Context, p ListParams) (*httpx.Page[models.SeniorUser], error) {
	var out httpx.Page[models.SeniorUser]
	if err := c.do(ctx, http.MethodGet, "/senior-users", p.values(), nil, &out); err != nil {
		return nil, errors.Wrap(err, "list senior users")
	}
	return &out, nil
}

// GetUsers searches users by email or name.
// GET /users
func (c *Client) GetUsers(ctx context.Context, p ListParams) (*httpx.Page[models.User], error) {
	var out httpx.Page[models.User]
	if err := c.do(ctx, http.MethodGet, "/users", p.values(), nil, &out); err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return &out, nil
}

// GetUserByID fetches one user.
// GET /users/{id}
func (c *Client) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return &out, nil
}

// GetHealthPlans searches health plans by name.
// GET /health-plans
func (c *Client) GetHealthPlans(ctx context.Context, p ListParams) (*httpx.Page[models.HealthPlan], error) {
	var out httpx.Page[models.HealthPlan]
	if err := c.do(ctx, http.MethodGet, "/health-plans", p.values(), nil, &out); err != nil {
		return nil, errors.Wrap(err, "list health plans")
	}
	return &out, nil
}

// GetHealthPlanByID fetches one health plan.
// GET /health-plans/{id}
func (c *Client) GetHealthPlanByID(ctx context.Context, id string) (*models.HealthPlan, error) {
	var out models.HealthPlan
	if err := c.do(ctx, http.MethodGet, "/health-plans/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get health plan %s", id)
	}
	return &out, nil
}

// GetUserProfile returns the authorization profile assigned to a user.
// GET /users/{id}/profile
func (c *Client) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/profile", nil, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get profile of user %s", userID)
	}
	return &out, nil
}

// Authenticate checks operator credentials and returns the matching user.
// POST /sessions
func (c *Client) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, body, &out); err != nil {
		return nil, errors.Wrap(err, "authenticate")
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, httpx.MaxBodyBytes))
	apiErr := &Error{Status: resp.StatusCode}

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// API error (network failure, decoding error).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
