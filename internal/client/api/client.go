// Package api implements the HTTP and websocket client for a chatterd
// server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatterd/chatterd/pkg/api"
)

const authCookieName = "auth_token"

// Client talks to a chatterd server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Register creates a new account. On a validation failure the server's
// accumulated error strings are returned with a nil error.
func (c *Client) Register(ctx context.Context, username, password string) (*api.UserResponse, []string, error) {
	reqBody := api.RegisterRequest{Username: username, Password: password}

	resp, err := c.postJSON(ctx, "/api/auth/register", reqBody)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user api.UserResponse
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &user, nil, nil
	case http.StatusBadRequest:
		var failed api.RegisterFailedResponse
		if err := json.NewDecoder(resp.Body).Decode(&failed); err != nil {
			return nil, nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, failed.Errors, nil
	default:
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// Login signs in and returns the user together with the identity token the
// server set as a cookie.
func (c *Client) Login(ctx context.Context, username, password string) (*api.UserResponse, string, error) {
	reqBody := api.LoginRequest{Username: username, Password: password}

	resp, err := c.postJSON(ctx, "/api/auth/login", reqBody)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", fmt.Errorf("invalid username or password")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == authCookieName {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil, "", fmt.Errorf("server did not set an auth cookie")
	}

	var user api.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return &user, token, nil
}

// History fetches one page of persisted messages.
func (c *Client) History(ctx context.Context, token string, page, pageSize int) (*api.PagedMessagesResponse, error) {
	u := fmt.Sprintf("%s/api/messages?page=%d&pageSize=%d", c.baseURL, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("not authenticated")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var paged api.PagedMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&paged); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &paged, nil
}

// Connect opens the real-time websocket connection, authenticating with the
// token carried as the auth cookie.
func (c *Client) Connect(ctx context.Context, token string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	header := http.Header{}
	header.Set("Cookie", fmt.Sprintf("%s=%s", authCookieName, token))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
