// ABOUTME: Google OAuth configuration and token storage for the Gmail importer
// ABOUTME: Tokens live next to the database under the XDG data directory
package intake

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/victor-4502/naova-mvp-sub002/config"
)

func NewOAuthConfig(opts config.GmailOptions) (*oauth2.Config, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("google OAuth credentials not configured, set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}
	return &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}, nil
}

func TokenPath() string {
	return filepath.Join(config.DataDir(), "google-credentials.json")
}

func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "create token directory")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "create token file")
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return errors.Wrap(err, "encode token")
	}
	return nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open token file")
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, errors.Wrap(err, "decode token")
	}
	return &token, nil
}

// NewGmailService builds an authenticated Gmail client from the stored token.
func NewGmailService(ctx context.Context, opts config.GmailOptions) (*gmail.Service, error) {
	cfg, err := NewOAuthConfig(opts)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(TokenPath())
	if err != nil {
		return nil, errors.Wrap(err, "no stored token, run 'naova intake login' first")
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, errors.Wrap(err, "create gmail service")
	}
	return svc, nil
}
