package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"courierflow/auth"
	"courierflow/parcel"
)

const basePath = "/api/v1"

// Client is the bearer-token authenticated REST transport to the courier
// backend. All business logic, persistence and authorization live on the
// other side of it; the client forwards commands and decodes projections.
//
// A zero token issues unauthenticated calls (login, registration, the
// password reset flow). SetToken installs the session bearer after login.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a transport rooted at baseURL (scheme and host only,
// e.g. "http://localhost:3000").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: empty base url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken installs the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token on logout.
func (c *Client) ClearToken() { c.SetToken("") }

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do issues a request and returns the raw response body. 401 and 403 map to
// ErrUnauthorized; other non-2xx statuses surface the backend's error
// message when one is present.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		var env envelope
		if json.Unmarshal(payload, &env) == nil && env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrRequestFailed, env.Error)
		}
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	return payload, nil
}

// ---- authentication ----

type loginResponse struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error,omitempty"`
	User        wireUser `json:"user"`
	AccessToken string   `json:"accessToken"`
}

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (auth.LoginResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/authentication/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return auth.LoginResult{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return auth.LoginResult{}, fmt.Errorf("api: decode login response: %w", err)
	}
	if !resp.Success {
		if resp.Error != "" {
			return auth.LoginResult{}, fmt.Errorf("%w: %s", auth.ErrInvalidCredentials, resp.Error)
		}
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}

	return auth.LoginResult{Token: resp.AccessToken, User: resp.User.toDomain()}, nil
}

// Register submits a new account for OTP verification.
func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/authentication/registration", map[string]string{
		"firstName": req.FirstName,
		"lastName":  req.LastName,
		"email":     req.Email,
		"phone":     req.Phone,
		"password":  req.Password,
	})
	return err
}

func (c *Client) successCall(ctx context.Context, path string, body any) error {
	payload, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	var env envelope
	if json.Unmarshal(payload, &env) == nil {
		// A 200 with success:false is still a rejection (OTP endpoints
		// reply with only the flag).
		return env.rejected()
	}
	return nil
}

// VerifyRegistration confirms the OTP emailed after registration.
func (c *Client) VerifyRegistration(ctx context.Context, email, otp string) error {
	return c.successCall(ctx, "/authentication/verifybyotp", map[string]string{"email": email, "otp": otp})
}

// ForgotPassword requests a reset OTP email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.successCall(ctx, "/authentication/forget-password", map[string]string{"email": email})
}

// VerifyResetOTP confirms the password-reset OTP.
func (c *Client) VerifyResetOTP(ctx context.Context, email, otp string) error {
	return c.successCall(ctx, "/authentication/verify-reset-otp", map[string]string{"email": email, "otp": otp})
}

// ResetPassword completes the reset flow.
func (c *Client) ResetPassword(ctx context.Context, email, password string) error {
	return c.successCall(ctx, "/authentication/reset-password", map[string]string{"email": email, "password": password})
}

// ---- customer ----

// BookParcel creates the server-side parcel record and returns it. The
// delivery charge in the result is the backend's binding figure.
func (c *Client) BookParcel(ctx context.Context, req parcel.BookingRequest) (parcel.Parcel, error) {
	body, err := c.do(ctx, http.MethodPost, "/parcel/book", req)
	if err != nil {
		return parcel.Parcel{}, err
	}

	var wire wireParcel
	if err := decodePayload(body, &wire); err != nil {
		return parcel.Parcel{}, fmt.Errorf("api: decode booked parcel: %w", err)
	}
	return wire.toDomain(), nil
}

// MyParcels fetches the parcels booked by the current customer.
func (c *Client) MyParcels(ctx context.Context) ([]parcel.Parcel, error) {
	return c.fetchParcels(ctx, "/customer/my-parcels")
}

// ---- agent ----

// MyJobs fetches the parcels assigned to the current agent.
func (c *Client) MyJobs(ctx context.Context) ([]parcel.Parcel, error) {
	return c.fetchParcels(ctx, "/agent/my-jobs")
}

// UpdateStatus issues the agent's status-change command.
func (c *Client) UpdateStatus(ctx context.Context, parcelID string, status parcel.Status) error {
	_, err := c.do(ctx, http.MethodPut, "/agent/update-status", map[string]any{
		"parcelId": parcelID,
		"status":   status,
	})
	return err
}

// UpdateLocation forwards a device position sample for an active parcel.
func (c *Client) UpdateLocation(ctx context.Context, parcelID string, lat, lng float64) error {
	_, err := c.do(ctx, http.MethodPost, "/agent/update-location", map[string]any{
		"parcelId": parcelID,
		"lat":      lat,
		"lng":      lng,
	})
	return err
}

// ---- admin ----

// AdminParcels fetches every parcel in the system.
func (c *Client) AdminParcels(ctx context.Context) ([]parcel.Parcel, error) {
	return c.fetchParcels(ctx, "/admin/parcels")
}

// AdminAgents fetches the assignable delivery agents.
func (c *Client) AdminAgents(ctx context.Context) ([]auth.User, error) {
	return c.fetchUsers(ctx, "/admin/agents")
}

// AdminUsers fetches all registered users.
func (c *Client) AdminUsers(ctx context.Context) ([]auth.User, error) {
	return c.fetchUsers(ctx, "/admin/users")
}

// AssignAgent assigns an agent to a pending parcel.
func (c *Client) AssignAgent(ctx context.Context, parcelID, agentID string) error {
	_, err := c.do(ctx, http.MethodPut, "/admin/assign-agent", map[string]string{
		"parcelId": parcelID,
		"agentId":  agentID,
	})
	return err
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(userID), nil)
	return err
}

// ExportReport downloads the parcel report in the given format ("csv" or
// "pdf") as an opaque blob.
func (c *Client) ExportReport(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case "csv", "pdf":
	default:
		return nil, fmt.Errorf("api: unknown export format %q", format)
	}
	return c.do(ctx, http.MethodGet, "/admin/export/"+format, nil)
}

// ---- shared fetch helpers ----

func (c *Client) fetchParcels(ctx context.Context, path string) ([]parcel.Parcel, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var wire []wireParcel
	if err := decodePayload(body, &wire); err != nil {
		return nil, fmt.Errorf("api: decode parcels from %s: %w", path, err)
	}
	return parcelsToDomain(wire), nil
}

func (c *Client) fetchUsers(ctx context.Context, path string) ([]auth.User, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var wire []wireUser
	if err := decodePayload(body, &wire); err != nil {
		return nil, fmt.Errorf("api: decode users from %s: %w", path, err)
	}
	return usersToDomain(wire), nil
}
