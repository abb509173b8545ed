// Package session supplies the identity of the current user to the client
// core and carries it inside signed bearer tokens for the data service.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned by providers that hold no signed-in user.
var ErrNoSession = errors.New("no active session")

// Session is the signed-in user as seen by the client.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Provider returns the current session. Implementations must be safe for
// concurrent use.
type Provider interface {
	Current(ctx context.Context) (Session, error)
}

// Static always returns the same session.
type Static Session

// Current implements Provider.
func (s Static) Current(context.Context) (Session, error) {
	if s.UserID == "" {
		return Session{}, ErrNoSession
	}
	return Session(s), nil
}

type claims struct {
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs s into an HS256 token valid for ttl.
func IssueToken(secret string, s Session, ttl time.Duration) (string, error) {
	if s.UserID == "" {
		return "", ErrNoSession
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:    s.DisplayName,
		Picture: s.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies token and returns the session it carries.
func ParseToken(secret, token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return Session{}, errors.New("parse token: missing subject")
	}
	return Session{UserID: c.Subject, DisplayName: c.Name, ImageURL: c.Picture}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// TokenProvider yields the session embedded in a bearer token. The token is
// decoded without verification; the data service verifies it on every write.
type TokenProvider struct {
	Token string
}

// Current implements Provider.
func (p TokenProvider) Current(context.Context) (Session, error) {
	if p.Token == "" {
		return Session{}, ErrNoSession
	}
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(p.Token, &c); err != nil {
		return Session{}, fmt.Errorf("decode token: %w", err)
	}
	if c.Subject == "" {
		return Session{}, ErrNoSession
	}
	return Session{UserID: c.Subject, DisplayName: c.Name, ImageURL: c.Picture}, nil
}
