/**
 * @description
 * This package provides a client for the transactional mail API used to
 * deliver verification codes. It encapsulates the logic for making
 * authenticated HTTP requests to the provider's send endpoint, handling
 * request body construction, and parsing responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package mailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the mail API.
type Client struct {
	BaseURL    string
	APIKey     string
	Sender     string
	HTTPClient *http.Client
}

// NewClient creates a new mail API client.
func NewClient(baseURL, apiKey, sender string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Sender:  sender,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendRequest represents the payload for the provider's send endpoint.
type SendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
}

// SendResponse is the expected response from the provider's send endpoint.
type SendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ErrorResponse represents an error from the mail API.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mail api error: %s - %s", e.Code, e.Message)
	}
	return "unknown mail api error"
}

// SendVerificationCode delivers a verification code to the given address.
func (c *Client) SendVerificationCode(ctx context.Context, email, username, code string, expiresAt time.Time) (*SendResponse, error) {
	payload := SendRequest{
		From:    c.Sender,
		To:      email,
		Subject: "Your verification code",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is %s. It expires at %s.\n\nIf you did not sign up, ignore this message.",
			username, code, expiresAt.UTC().Format(time.RFC1123),
		),
	}
	return c.doSend(ctx, payload)
}

// doSend executes a send request against the provider.
func (c *Client) doSend(ctx context.Context, payload SendRequest) (*SendResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create send request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read send response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=mail_client op=send status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=mail_client op=send status=%d code=%q detail=%q", resp.StatusCode, errResp.Code, errResp.Message)
		return nil, &errResp
	}

	var successResp SendResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}
	return &successResp, nil
}
