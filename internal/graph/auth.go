package graph

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/graphconnect/graphconnect/internal/config"
)

// Scopes requested from the Microsoft identity platform.
const (
	ScopeDefault  = "https://graph.microsoft.com/.default"
	ScopeMailSend = "https://graph.microsoft.com/Mail.Send"
)

// NewTokenSource returns the token source selected by cfg.AuthMode.
func NewTokenSource(ctx context.Context, cfg config.GraphConfig) (oauth2.TokenSource, error) {
	switch cfg.AuthMode {
	case config.AuthModeClientCredentials:
		return ClientCredentialsTokenSource(ctx, cfg.TenantID, cfg.ClientID, cfg.ClientSecret), nil
	case config.AuthModeRefreshToken:
		return RefreshTokenSource(ctx, cfg.TenantID, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken), nil
	case config.AuthModeStatic:
		return StaticTokenSource(cfg.AccessToken)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAuthMode, cfg.AuthMode)
	}
}

// ClientCredentialsTokenSource acquires app-only tokens for the given tenant.
// App-only tokens cannot use the "me" mailbox; pair it with UserMailbox.
func ClientCredentialsTokenSource(ctx context.Context, tenantID, clientID, clientSecret string) oauth2.TokenSource {
	ccCfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     microsoft.AzureADEndpoint(tenantID).TokenURL,
		Scopes:       []string{ScopeDefault},
	}
	return ccCfg.TokenSource(ctx)
}

// RefreshTokenSource exchanges a delegated refresh token for access tokens
// on behalf of the signed-in user.
func RefreshTokenSource(ctx context.Context, tenantID, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     microsoft.AzureADEndpoint(tenantID),
		Scopes:       []string{ScopeMailSend, "offline_access"},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
	}

	return oauthCfg.TokenSource(ctx, token)
}

// StaticTokenSource wraps an access token obtained elsewhere, e.g. forwarded
// from an incoming request.
func StaticTokenSource(accessToken string) (oauth2.TokenSource, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}), nil
}
