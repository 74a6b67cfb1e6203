// Package client provides the HTTP client for the osrp CLI: transport
// plumbing plus the registration and login orchestration over the
// protocol engine.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/osrplabs/osrp/pkg/protocol"
)

const (
	defaultTimeout  = 30 * time.Second
	contentTypeJSON = "application/json"
)

// Client is an HTTP client for the oblivious SRP API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	sessionToken string
}

// New creates an API client for the given base URL
// (e.g. "https://auth.example.com:8470").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SessionToken returns the token captured by the last successful login.
func (c *Client) SessionToken() string {
	return c.sessionToken
}

// Register creates a user record.
func (c *Client) Register(ctx context.Context, req protocol.RegisterRequest) error {
	var resp protocol.RegisterResponse
	return c.post(ctx, "/v1/register", req, &resp)
}

// EvaluateOPRF runs one blinded evaluation round trip; request and the
// returned response are the serialized wire forms.
func (c *Client) EvaluateOPRF(ctx context.Context, username string, request []byte) ([]byte, error) {
	var resp protocol.OPRFEvaluateResponse
	err := c.post(ctx, "/v1/oprf/evaluate", protocol.OPRFEvaluateRequest{
		Username: username,
		Request:  base64.StdEncoding.EncodeToString(request),
	}, &resp)
	if err != nil {
		return nil, err
	}
	wire, err := base64.StdEncoding.DecodeString(resp.Response)
	if err != nil {
		return nil, fmt.Errorf("decoding OPRF response: %w", err)
	}
	return wire, nil
}

// LoginInit opens a login attempt.
func (c *Client) LoginInit(ctx context.Context, username, aPub string) (*protocol.LoginInitResponse, error) {
	var resp protocol.LoginInitResponse
	err := c.post(ctx, "/v1/login/init", protocol.LoginInitRequest{
		Username: username,
		A:        aPub,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginVerify submits the client proof and captures the session token on
// success.
func (c *Client) LoginVerify(ctx context.Context, loginID, proof string) (*protocol.LoginVerifyResponse, error) {
	var resp protocol.LoginVerifyResponse
	err := c.post(ctx, "/v1/login/verify", protocol.LoginVerifyRequest{
		LoginID: loginID,
		Proof:   proof,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.sessionToken = resp.SessionToken
	return &resp, nil
}

// Logout invalidates the captured session token.
func (c *Client) Logout(ctx context.Context) error {
	if c.sessionToken == "" {
		return nil
	}
	err := c.post(ctx, "/v1/logout", nil, nil)
	c.sessionToken = ""
	return err
}

// post sends a JSON request and decodes either the expected response or
// a protocol.ErrorResponse.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr protocol.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
		return &apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
