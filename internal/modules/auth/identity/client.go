// Package identity talks to the external identity provider that owns user
// accounts and password verification. This service never sees password
// hashes; it only exchanges credentials for a user id.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 5 * time.Second

// ErrInvalidCredentials covers every provider-side rejection of a sign-in.
// The message is deliberately uniform so callers cannot distinguish "no such
// user" from "wrong password".
var ErrInvalidCredentials = errors.New("invalid credentials")

// SignUpError carries the provider's own message for surfacing to clients.
type SignUpError struct {
	Message string
}

func (e *SignUpError) Error() string { return e.Message }

// Client is an HTTP client for the identity provider's email endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the provider at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// signInResponse tolerates both response shapes the provider is known to
// return: {user:{id}} and {data:{user:{id}}}.
type signInResponse struct {
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
	Data *struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"data"`
}

func (r *signInResponse) userID() string {
	if r.Data != nil && r.Data.User != nil && r.Data.User.ID != "" {
		return r.Data.User.ID
	}
	if r.User != nil {
		return r.User.ID
	}
	return ""
}

// SignIn verifies credentials and returns the provider's user id. Any
// non-2xx status, unparseable body, or missing user id maps to
// ErrInvalidCredentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	resp, err := c.post(ctx, "/api/auth/sign-in/email", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", ErrInvalidCredentials
	}

	var parsed signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", ErrInvalidCredentials
	}
	userID := parsed.userID()
	if userID == "" {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}

// SignUp creates an account with the provider. On rejection it returns a
// *SignUpError holding the provider's message when one is parseable.
func (c *Client) SignUp(ctx context.Context, email, password, name, image string) error {
	body := map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}
	if image != "" {
		body["image"] = image
	}
	resp, err := c.post(ctx, "/api/auth/sign-up/email", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := "Sign up failed."
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if parsed.Error != "" {
			message = parsed.Error
		} else if parsed.Message != "" {
			message = parsed.Message
		}
	}
	return &SignUpError{Message: message}
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	return resp, nil
}
