package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrTokenMalformed = errors.New("access token is malformed")
	ErrTokenExpired   = errors.New("access token has expired")
)

// GraphClaims holds the identity claims of a Microsoft identity platform access token.
type GraphClaims struct {
	jwt.RegisteredClaims
	ObjectID          string `json:"oid,omitempty"`
	TenantID          string `json:"tid,omitempty"`
	UPN               string `json:"upn,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	UniqueName        string `json:"unique_name,omitempty"`
	AppID             string `json:"appid,omitempty"`
	Scope             string `json:"scp,omitempty"`
}

// Principal returns the best available user name for logging and audit.
func (c *GraphClaims) Principal() string {
	switch {
	case c.UPN != "":
		return c.UPN
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.UniqueName != "":
		return c.UniqueName
	case c.ObjectID != "":
		return c.ObjectID
	default:
		return c.Subject
	}
}

// InspectGraphToken decodes the claims of a delegated Graph token.
// The signature is not verified. Claims are only used for attribution;
// Graph validates the token when it is forwarded.
func InspectGraphToken(tokenString string, now time.Time) (*GraphClaims, error) {
	claims := &GraphClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if exp != nil && now.After(exp.Time) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}
