// Package client provides a typed client for the pgstay HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/core/validation"
)

// Client provides methods for calling the pgstay API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Config holds client configuration.
type Config struct {
	BaseURL string // API base URL, e.g., "http://localhost:8080"
	Timeout time.Duration
}

// NewClient creates a new API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetToken sets the bearer token sent with every request. An empty token
// sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// =============================================================================
// Errors
// =============================================================================

// APIError is a refused request, decoded from the API's error envelope.
type APIError struct {
	Status  int
	Message string
	Errors  []validation.FieldError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// =============================================================================
// Request Types
// =============================================================================

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name        string      `json:"name"`
	PhoneNumber string      `json:"phoneNumber"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
}

// CommunityInput is the payload for registering a PG community.
type CommunityInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// TechnicianInput is the payload for creating a technician.
type TechnicianInput struct {
	Name         string            `json:"name"`
	PhoneNumber  string            `json:"phoneNumber"`
	Speciality   domain.Speciality `json:"speciality"`
	CommunityIDs []string          `json:"pgCommunityIds"`
}

type envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    json.RawMessage         `json:"data"`
	Errors  []validation.FieldError `json:"errors"`
}

// =============================================================================
// Auth Operations
// =============================================================================

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	var session domain.Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", in, &session)
	return session, err
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, phoneNumber, password string) (domain.Session, error) {
	var session domain.Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"phoneNumber": phoneNumber,
		"password":    password,
	}, &session)
	return session, err
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user)
	return user, err
}

// =============================================================================
// Community Operations
// =============================================================================

// CreateCommunity registers a PG community owned by the signed-in user.
func (c *Client) CreateCommunity(ctx context.Context, in CommunityInput) (*domain.Community, error) {
	var community domain.Community
	if err := c.do(ctx, http.MethodPost, "/api/v1/communities", in, &community); err != nil {
		return nil, err
	}
	return &community, nil
}

// ListCommunities lists PG communities.
func (c *Client) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	var communities []domain.Community
	err := c.do(ctx, http.MethodGet, "/api/v1/communities", nil, &communities)
	return communities, err
}

// =============================================================================
// Technician Operations
// =============================================================================

// CreateTechnician creates a technician serving the given communities.
func (c *Client) CreateTechnician(ctx context.Context, in TechnicianInput) (*domain.Technician, error) {
	var technician domain.Technician
	if err := c.do(ctx, http.MethodPost, "/api/v1/technicians", in, &technician); err != nil {
		return nil, err
	}
	return &technician, nil
}

// GetTechnician fetches a technician by ID.
func (c *Client) GetTechnician(ctx context.Context, id string) (*domain.Technician, error) {
	var technician domain.Technician
	if err := c.do(ctx, http.MethodGet, "/api/v1/technicians/"+url.PathEscape(id), nil, &technician); err != nil {
		return nil, err
	}
	return &technician, nil
}

// UpdateTechnician applies a partial update to a technician.
func (c *Client) UpdateTechnician(ctx context.Context, id string, patch domain.TechnicianPatch) (*domain.Technician, error) {
	var technician domain.Technician
	if err := c.do(ctx, http.MethodPatch, "/api/v1/technicians/"+url.PathEscape(id), patch, &technician); err != nil {
		return nil, err
	}
	return &technician, nil
}

// AssignTechnician adds communities to the technician's assignments.
func (c *Client) AssignTechnician(ctx context.Context, id string, communityIDs []string) (*domain.Technician, error) {
	var technician domain.Technician
	path := "/api/v1/technicians/" + url.PathEscape(id) + "/assign"
	if err := c.do(ctx, http.MethodPost, path, map[string][]string{"pgCommunityIds": communityIDs}, &technician); err != nil {
		return nil, err
	}
	return &technician, nil
}

// SetAvailability marks a technician available or unavailable.
func (c *Client) SetAvailability(ctx context.Context, id string, available bool) (*domain.Technician, error) {
	var technician domain.Technician
	path := "/api/v1/technicians/" + url.PathEscape(id) + "/availability"
	if err := c.do(ctx, http.MethodPatch, path, map[string]bool{"isAvailable": available}, &technician); err != nil {
		return nil, err
	}
	return &technician, nil
}

// ListCommunityTechnicians lists the technicians serving a community.
func (c *Client) ListCommunityTechnicians(ctx context.Context, communityID string) ([]domain.Technician, error) {
	var technicians []domain.Technician
	path := "/api/v1/communities/" + url.PathEscape(communityID) + "/technicians"
	err := c.do(ctx, http.MethodGet, path, nil, &technicians)
	return technicians, err
}

// ListAvailableTechnicians lists the available technicians in a community,
// optionally restricted to one speciality.
func (c *Client) ListAvailableTechnicians(ctx context.Context, communityID string, speciality domain.Speciality) ([]domain.Technician, error) {
	var technicians []domain.Technician
	path := "/api/v1/communities/" + url.PathEscape(communityID) + "/technicians/available"
	if speciality != "" {
		path += "?" + url.Values{"speciality": {string(speciality)}}.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, nil, &technicians)
	return technicians, err
}

// =============================================================================
// Transport
// =============================================================================

// do sends a request and decodes the envelope's data into out. Non-2xx
// responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, in != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("api request refused",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", env.Message,
		)
		return &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
