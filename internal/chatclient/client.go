package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d - %s", e.Status, e.Detail)
}

// Reply is the backend answer for one query.
type Reply struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

type request struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

// Client talks to the chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend rooted at baseURL (for example http://localhost:8000/api/v1).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendMessage posts the query for userID and returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, userID, query string) (Reply, error) {
	body, err := json.Marshal(request{UserID: userID, Query: query})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &HTTPError{Status: resp.StatusCode, Detail: detail(raw, resp.StatusCode)}
	}

	var out Reply
	if err := json.Unmarshal(raw, &out); err != nil {
		return Reply{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

// detail prefers the JSON detail or error field and falls back to the status text.
func detail(raw []byte, status int) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(status)
}

// Detail returns the user facing part of err: the backend detail for HTTP errors,
// the message otherwise.
func Detail(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FailureNotice is the assistant text shown when a chat turn could not be completed.
func FailureNotice(err error) string {
	return fmt.Sprintf("Üzgünüm, bir hata oluştu: %s. Lütfen daha sonra tekrar deneyin.", Detail(err))
}
