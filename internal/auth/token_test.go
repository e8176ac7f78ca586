package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims GraphClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestInspectGraphToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, GraphClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		ObjectID: "oid-1",
		TenantID: "tid-1",
		UPN:      "adele@contoso.com",
		Scope:    "Mail.Send User.Read",
	})

	claims, err := InspectGraphToken(token, now)
	require.NoError(t, err)

	assert.Equal(t, "adele@contoso.com", claims.Principal())
	assert.Equal(t, "oid-1", claims.ObjectID)
	assert.Equal(t, "tid-1", claims.TenantID)
}

func TestInspectGraphToken_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, GraphClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
	})

	_, err := InspectGraphToken(token, now)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestInspectGraphToken_Malformed(t *testing.T) {
	_, err := InspectGraphToken("EwBwA8l6BAAU-opaque-consumer-token", time.Now())
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestGraphClaims_Principal(t *testing.T) {
	tests := []struct {
		name   string
		claims GraphClaims
		want   string
	}{
		{"upn", GraphClaims{UPN: "a", PreferredUsername: "b"}, "a"},
		{"preferred username", GraphClaims{PreferredUsername: "b", UniqueName: "c"}, "b"},
		{"unique name", GraphClaims{UniqueName: "c", ObjectID: "d"}, "c"},
		{"object id", GraphClaims{ObjectID: "d"}, "d"},
		{"subject", GraphClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "e"}}, "e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.Principal())
		})
	}
}
