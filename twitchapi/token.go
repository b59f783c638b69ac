package twitchapi

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the production token endpoint.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// NewTokenSource builds a cached app access (client credentials) token
// source. tokenURL may be empty to use the production endpoint; tests
// point it at a mock server.
// NOTE: app tokens CANNOT be used for IRC chat; the capture path runs
// anonymously and never needs one.
func NewTokenSource(ctx context.Context, clientID, clientSecret, tokenURL string, hc *http.Client) (oauth2.TokenSource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("missing client id/secret for twitch app token")
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return cfg.TokenSource(ctx), nil
}
