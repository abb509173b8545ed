package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	in := Session{UserID: "u-1", DisplayName: "Ada", ImageURL: "https://img/ada.png"}
	token, err := IssueToken(secret, in, time.Hour)
	require.NoError(t, err)

	out, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := IssueToken(secret, Session{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, Session{UserID: "u-1"}, -time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		key   string
	}{
		{"wrong secret", good, "other-secret"},
		{"expired", expired, secret},
		{"malformed", "malformed.token.here", secret},
		{"none algorithm", unsigned, secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.key, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestIssueToken_RequiresUser(t *testing.T) {
	_, err := IssueToken(secret, Session{}, time.Hour)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}

func TestProviders(t *testing.T) {
	ctx := context.Background()

	s, err := Static{UserID: "u-2", DisplayName: "Grace"}.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace", s.DisplayName)

	_, err = Static{}.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	token, err := IssueToken(secret, Session{UserID: "u-3", DisplayName: "Linus"}, time.Hour)
	require.NoError(t, err)
	s, err = TokenProvider{Token: token}.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: "u-3", DisplayName: "Linus"}, s)

	_, err = TokenProvider{}.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
