package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// Scopes requested from Google. Labeling messages requires modify scope.
var Scopes = []string{
	gmail.GmailModifyScope,
}

// revokeURL is Google's token revocation endpoint.
const revokeURL = "https://oauth2.googleapis.com/revoke"

// BrowserAuthorizer implements Authorizer with the OAuth desktop flow: it
// opens the user's browser, receives the authorization code on a localhost
// callback, and exchanges it for an access token.
type BrowserAuthorizer struct {
	credPath   string
	listenAddr string
	httpClient *http.Client
}

// NewBrowserAuthorizer returns an authorizer reading OAuth client
// credentials from the given file.
func NewBrowserAuthorizer(credPath string) *BrowserAuthorizer {
	return &BrowserAuthorizer{
		credPath:   credPath,
		listenAddr: "localhost:8080",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Token runs the browser flow and returns a fresh access token. The
// non-interactive form cannot mint tokens for a desktop app, so it fails
// rather than prompting.
func (b *BrowserAuthorizer) Token(ctx context.Context, interactive bool) (string, error) {
	if !interactive {
		return "", fmt.Errorf("no cached authorization; interactive sign-in required")
	}

	config, err := b.loadConfig()
	if err != nil {
		return "", err
	}

	token, err := b.tokenFromWeb(ctx, config)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Invalidate asks Google to revoke the token. Callers treat failures as
// best-effort.
func (b *BrowserAuthorizer) Invalidate(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, "POST", revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation failed with status %d", resp.StatusCode)
	}
	return nil
}

// loadConfig loads the OAuth client config from the credentials file.
func (b *BrowserAuthorizer) loadConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(b.credPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w\n\nTo set up Gmail API access:\n1. Go to https://console.cloud.google.com/\n2. Create a project and enable the Gmail API\n3. Create OAuth 2.0 credentials (Desktop app)\n4. Download and save to: %s", err, b.credPath)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return config, nil
}

// tokenFromWeb performs the OAuth flow via browser.
func (b *BrowserAuthorizer) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state := fmt.Sprintf("%d", time.Now().UnixNano())

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			errChan <- fmt.Errorf("invalid state parameter")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no code in callback")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		codeChan <- code
	})

	server := &http.Server{Addr: b.listenAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Shutdown(ctx)

	config.RedirectURL = "http://" + b.listenAddr + "/callback"
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Println("Opening browser for Google authorization...")
	fmt.Println("If the browser doesn't open, visit this URL:")
	fmt.Println(authURL)
	fmt.Println()

	openBrowser(authURL)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timeout")
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}
