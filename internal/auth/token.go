package auth

import (
	"context"
	"sync"
	"time"
)

// Credential is the bearer token the gateway attaches to requests. At most
// one credential is current at any time; it is owned by the TokenStore and
// mutated only through the auth client.
type Credential struct {
	Token      string
	AcquiredAt time.Time
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return c.Token != ""
}

// Persistence is the external store the token survives restarts in. A store
// with no saved token returns an empty token and no error.
type Persistence interface {
	LoadToken(ctx context.Context) (token string, acquiredAt time.Time, err error)
	SaveToken(ctx context.Context, token string, acquiredAt time.Time) error
	DeleteToken(ctx context.Context) error
}

// TokenStore caches the current credential in memory and writes it through
// to persistent storage. It performs no network or UI side effects; storage
// failures surface to the caller without retry.
//
// Writers publish to the memory cache only after the persistent write
// succeeded, so a reader never observes a cleared-but-not-yet-replaced state
// as a valid credential.
type TokenStore struct {
	mu      sync.Mutex
	cred    Credential
	loaded  bool // memory cache primed (possibly with an empty credential)
	persist Persistence
}

// NewTokenStore returns a store backed by the given persistence layer.
func NewTokenStore(persist Persistence) *TokenStore {
	return &TokenStore{persist: persist}
}

// Get returns the current credential, falling back to persistent storage on
// cold start. A store with no credential returns a zero Credential and
// ok=false.
func (ts *TokenStore) Get(ctx context.Context) (Credential, bool, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.loaded {
		return ts.cred, ts.cred.Valid(), nil
	}

	token, acquiredAt, err := ts.persist.LoadToken(ctx)
	if err != nil {
		return Credential{}, false, err
	}
	ts.cred = Credential{Token: token, AcquiredAt: acquiredAt}
	ts.loaded = true
	return ts.cred, ts.cred.Valid(), nil
}

// Set stores a new credential in persistent storage and then in memory.
func (ts *TokenStore) Set(ctx context.Context, cred Credential) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.persist.SaveToken(ctx, cred.Token, cred.AcquiredAt); err != nil {
		return err
	}
	ts.cred = cred
	ts.loaded = true
	return nil
}

// Clear removes the credential from persistent storage and memory.
func (ts *TokenStore) Clear(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.persist.DeleteToken(ctx); err != nil {
		return err
	}
	ts.cred = Credential{}
	ts.loaded = true
	return nil
}
