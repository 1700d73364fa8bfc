package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestManager() *TokenManager {
	return NewTokenManager(testSecret, 30*time.Minute, "watermyplant-api", "watermyplant-client")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, "pw1", hash)
	assert.True(t, VerifyPassword("pw1", hash))
	assert.False(t, VerifyPassword("pw2", hash))
	assert.False(t, VerifyPassword("pw1", "not-a-hash"))

	again, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.CreateAccessToken("alice", 0)
	require.NoError(t, err)

	claims, err := m.DecodeAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Expiry(t *testing.T) {
	m := newTestManager()
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, err := m.CreateAccessToken("alice", time.Minute)
	require.NoError(t, err)

	_, err = m.DecodeAndValidate(token)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.DecodeAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := newTestManager()
	valid, err := m.CreateAccessToken("alice", 0)
	require.NoError(t, err)

	other := NewTokenManager("another-secret-another-secret-another", 30*time.Minute, "watermyplant-api", "watermyplant-client")
	foreign, err := other.CreateAccessToken("alice", 0)
	require.NoError(t, err)

	wrongIssuer := NewTokenManager(testSecret, 30*time.Minute, "someone-else", "watermyplant-client")
	fromOtherIssuer, err := wrongIssuer.CreateAccessToken("alice", 0)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "alice",
		Issuer:   "watermyplant-api",
		Audience: jwt.ClaimStrings{"watermyplant-client"},
	})
	eternal, err := noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"malformed":      "not.a.jwt",
		"empty":          "",
		"wrong secret":   foreign,
		"wrong issuer":   fromOtherIssuer,
		"tampered":       tampered,
		"alg none":       unsigned,
		"missing expiry": eternal,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.DecodeAndValidate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_MissingSecret(t *testing.T) {
	m := NewTokenManager("", time.Minute, "", "")
	_, err := m.CreateAccessToken("alice", 0)
	assert.Error(t, err)
}
