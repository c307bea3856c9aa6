package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to a running relay server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the relay at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Sort scripts can take a while on large mailboxes.
			Timeout: 5 * time.Minute,
		},
	}
}

// Run asks the relay to sort messages from sender into the named label and
// returns the script's output.
func (c *Client) Run(ctx context.Context, senderEmail, labelName string) (string, error) {
	body, err := json.Marshal(RunRequest{SenderEmail: senderEmail, LabelName: labelName})
	if err != nil {
		return "", fmt.Errorf("relay: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("relay: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			return "", fmt.Errorf("relay: %s", errResp.Error)
		}
		return "", fmt.Errorf("relay: request failed with status %d", resp.StatusCode)
	}

	var runResp RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&runResp); err != nil {
		return "", fmt.Errorf("relay: failed to decode response: %w", err)
	}
	return runResp.Output, nil
}
