package gmailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nikhil-bhat/mailsort/internal/auth"
	"github.com/nikhil-bhat/mailsort/internal/rules"
)

// DefaultBaseURL is the production Gmail REST endpoint.
const DefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Client wraps outbound Gmail API calls with the bearer credential. On a 401
// it performs at most one token refresh followed by exactly one retry of the
// same request; every other failure surfaces immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *auth.Client

	// MaxResults caps how many message ids ListMessages returns. Zero means
	// the server default for a single page.
	MaxResults int
}

// New creates a Gmail API client. An empty baseURL selects the production
// endpoint.
func New(baseURL string, authClient *auth.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth: authClient,
	}
}

// ListMessages returns the ids of messages in the mailbox, following
// pagination up to MaxResults.
func (c *Client) ListMessages(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		path := "/users/me/messages"
		q := url.Values{}
		if c.MaxResults > 0 {
			remaining := c.MaxResults - len(ids)
			if remaining > 100 {
				remaining = 100
			}
			q.Set("maxResults", fmt.Sprintf("%d", remaining))
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		var page listResponse
		if err := c.Request(ctx, "GET", path, nil, &page); err != nil {
			return nil, err
		}

		for _, ref := range page.Messages {
			ids = append(ids, ref.ID)
			if c.MaxResults > 0 && len(ids) >= c.MaxResults {
				return ids, nil
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}

// GetMetadata fetches one message and projects it onto the matching view:
// From and Subject headers extracted case-insensitively, absent headers
// normalized to empty strings.
func (c *Client) GetMetadata(ctx context.Context, id string) (rules.Message, error) {
	var msg message
	path := "/users/me/messages/" + url.PathEscape(id)
	if err := c.Request(ctx, "GET", path, nil, &msg); err != nil {
		return rules.Message{}, err
	}
	if msg.ID == "" {
		msg.ID = id
	}
	return normalize(msg), nil
}

// ApplyLabel attaches a label to a message. The call is idempotent on the
// Gmail side: re-adding an already present label succeeds.
func (c *Client) ApplyLabel(ctx context.Context, id, labelID string) error {
	path := "/users/me/messages/" + url.PathEscape(id) + "/modify"
	body := modifyRequest{AddLabelIDs: []string{labelID}}
	return c.Request(ctx, "POST", path, body, nil)
}

// ListLabels returns the mailbox's labels indexed by name.
func (c *Client) ListLabels(ctx context.Context) (map[string]Label, error) {
	var list labelList
	if err := c.Request(ctx, "GET", "/users/me/labels", nil, &list); err != nil {
		return nil, err
	}
	byName := make(map[string]Label, len(list.Labels))
	for _, l := range list.Labels {
		byName[l.Name] = l
	}
	return byName, nil
}

// EnsureLabel returns the id of the named label, creating it when missing.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	byName, err := c.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	if l, ok := byName[name]; ok {
		return l.ID, nil
	}

	created := Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}
	var out Label
	if err := c.Request(ctx, "POST", "/users/me/labels", created, &out); err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	return out.ID, nil
}

// Request performs one authenticated API call. The bearer token comes from
// the token store, with a single interactive authentication when nothing is
// cached yet. A 401 triggers exactly one refresh and one retry; a second 401
// fails with ErrAuthExhausted. Non-auth HTTP failures and transport failures
// are never retried.
func (c *Client) Request(ctx context.Context, method, path string, body, out interface{}) error {
	cred, ok, err := c.auth.Tokens().Get(ctx)
	if err != nil {
		return err
	}
	if !ok {
		cred, err = c.auth.Authenticate(ctx, true)
		if err != nil {
			return err
		}
	}

	status, err := c.do(ctx, method, path, body, cred.Token, out)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	// Token rejected: one refresh, one retry. The refresh is single-flight,
	// so concurrent 401s share the same new credential.
	cred, err = c.auth.Refresh(ctx)
	if err != nil {
		return err
	}

	status, err = c.do(ctx, method, path, body, cred.Token, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrAuthExhausted
	}
	return nil
}

// do performs a single HTTP exchange. It reports a 401 via the returned
// status instead of an error so Request can run its bounded retry; all other
// non-2xx statuses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("gmailapi: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("gmailapi: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return http.StatusUnauthorized, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("gmailapi: failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
