package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrDenied is returned when the authorization collaborator rejects the user
// or fails to produce a token. It is fatal for a batch: there is no point
// retrying per-message work without a credential.
var ErrDenied = errors.New("auth: authorization denied")

// Authorizer is the interactive authorization collaborator. Token blocks for
// the duration of the flow when interactive is true; Invalidate tells the
// provider to drop a cached/issued token.
type Authorizer interface {
	Token(ctx context.Context, interactive bool) (string, error)
	Invalidate(ctx context.Context, token string) error
}

// Client owns the authorization flow and token refresh. All token writes go
// through it; the TokenStore it holds is the only shared mutable state.
type Client struct {
	authorizer Authorizer
	tokens     *TokenStore
	group      singleflight.Group
	now        func() time.Time
}

// NewClient returns an auth client over the given collaborator and store.
func NewClient(authorizer Authorizer, tokens *TokenStore) *Client {
	return &Client{
		authorizer: authorizer,
		tokens:     tokens,
		now:        time.Now,
	}
}

// Tokens exposes the token store so the gateway can read the current
// credential without being able to run authorization flows.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// Authenticate runs the authorization flow and stores the resulting
// credential. Denial or a collaborator failure surfaces as ErrDenied.
func (c *Client) Authenticate(ctx context.Context, interactive bool) (Credential, error) {
	token, err := c.authorizer.Token(ctx, interactive)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	if token == "" {
		return Credential{}, fmt.Errorf("%w: no token received", ErrDenied)
	}

	cred := Credential{Token: token, AcquiredAt: c.now()}
	if err := c.tokens.Set(ctx, cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Refresh replaces the current credential with a fresh one. It is
// single-flight: when a refresh is already in progress, additional callers
// wait for that refresh instead of starting their own, so concurrent 401s
// never stack up interactive prompts. All waiters observe the same resulting
// credential.
func (c *Client) Refresh(ctx context.Context) (Credential, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

func (c *Client) refresh(ctx context.Context) (Credential, error) {
	// Best-effort invalidation of the stale token at the provider. A failed
	// invalidation must not block re-authentication.
	if cred, ok, err := c.tokens.Get(ctx); err == nil && ok {
		_ = c.authorizer.Invalidate(ctx, cred.Token)
	}
	if err := c.tokens.Clear(ctx); err != nil {
		return Credential{}, err
	}

	return c.Authenticate(ctx, true)
}
