package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nikhil-bhat/mailsort/internal/auth"
	"github.com/nikhil-bhat/mailsort/internal/config"
	"github.com/nikhil-bhat/mailsort/internal/gmailapi"
	"github.com/nikhil-bhat/mailsort/internal/store"
)

// app bundles the wiring every command needs: config, local store, auth
// client, and the Gmail gateway on top of them.
type app struct {
	cfg     *config.Config
	store   *store.Store
	auth    *auth.Client
	gateway *gmailapi.Client
	log     *slog.Logger
}

// newApp loads config and wires the collaborator graph. The caller must
// Close when done.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	authorizer := auth.NewBrowserAuthorizer(cfg.Gmail.CredentialsPath)
	authClient := auth.NewClient(authorizer, auth.NewTokenStore(st))

	gateway := gmailapi.New(cfg.Gmail.APIBaseURL, authClient)
	gateway.MaxResults = cfg.Gmail.MaxResults

	return &app{
		cfg:     cfg,
		store:   st,
		auth:    authClient,
		gateway: gateway,
		log:     defaultLogger(),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
