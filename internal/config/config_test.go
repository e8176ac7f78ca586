package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Graph.BaseURL)
	assert.Equal(t, AuthModeClientCredentials, cfg.Graph.AuthMode)
	assert.Equal(t, 30*time.Second, cfg.Graph.Timeout)
	assert.Equal(t, time.Minute, cfg.RateLimiting.Window)
	assert.True(t, cfg.Audit.Enabled)
	assert.False(t, cfg.Graph.Configured())
	assert.Empty(t, cfg.Mail.APIKey)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.ErrorContains(t, cfg.Graph.Validate(), `graph.tenant_id "common"`)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRAPHCONNECT_GRAPH_AUTH_MODE", AuthModeStatic)
	t.Setenv("GRAPHCONNECT_GRAPH_ACCESS_TOKEN", "token")
	t.Setenv("GRAPHCONNECT_GRAPH_TIMEOUT", "5s")
	t.Setenv("GRAPHCONNECT_SERVER_PORT", "9090")
	t.Setenv("GRAPHCONNECT_MAIL_API_KEY", "send-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "send-key", cfg.Mail.APIKey)
	assert.Equal(t, AuthModeStatic, cfg.Graph.AuthMode)
	assert.Equal(t, "token", cfg.Graph.AccessToken)
	assert.Equal(t, 5*time.Second, cfg.Graph.Timeout)
	assert.True(t, cfg.Graph.Configured())
	assert.NoError(t, cfg.Graph.Validate())
}

func TestGraphConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GraphConfig
		wantErr string
	}{
		{
			name: "client credentials ok",
			cfg: GraphConfig{AuthMode: AuthModeClientCredentials, TenantID: "t", ClientID: "c",
				ClientSecret: "s", SenderAddress: "noreply@contoso.com"},
		},
		{
			name:    "client credentials without sender",
			cfg:     GraphConfig{AuthMode: AuthModeClientCredentials, TenantID: "t", ClientID: "c", ClientSecret: "s"},
			wantErr: "graph.sender_address",
		},
		{
			name:    "client credentials without secret",
			cfg:     GraphConfig{AuthMode: AuthModeClientCredentials, TenantID: "t", ClientID: "c", SenderAddress: "a@b.com"},
			wantErr: "graph.client_secret",
		},
		{
			name: "client credentials with multi-tenant authority",
			cfg: GraphConfig{AuthMode: AuthModeClientCredentials, TenantID: "common", ClientID: "c",
				ClientSecret: "s", SenderAddress: "noreply@contoso.com"},
			wantErr: `graph.tenant_id "common"`,
		},
		{
			name: "client credentials with organizations authority",
			cfg: GraphConfig{AuthMode: AuthModeClientCredentials, TenantID: "Organizations", ClientID: "c",
				ClientSecret: "s", SenderAddress: "noreply@contoso.com"},
			wantErr: "cannot issue app-only tokens",
		},
		{
			name: "refresh token on common tenant ok",
			cfg:  GraphConfig{AuthMode: AuthModeRefreshToken, TenantID: "common", ClientID: "c", RefreshToken: "r"},
		},
		{
			name: "refresh token ok",
			cfg:  GraphConfig{AuthMode: AuthModeRefreshToken, ClientID: "c", RefreshToken: "r"},
		},
		{
			name:    "refresh token missing",
			cfg:     GraphConfig{AuthMode: AuthModeRefreshToken, ClientID: "c"},
			wantErr: "graph.refresh_token",
		},
		{
			name:    "static missing token",
			cfg:     GraphConfig{AuthMode: AuthModeStatic},
			wantErr: "graph.access_token",
		},
		{
			name:    "unknown mode",
			cfg:     GraphConfig{AuthMode: "basic"},
			wantErr: `"basic" is not supported`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
