package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examshaala/examshaala-portal/internal/models"
)

func testSession(ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        "sess-1",
		UserID:    "uid-1",
		Email:     "asha@example.com",
		Provider:  models.ProviderPassword,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))

	token, err := issuer.Issue(testSession(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, models.ProviderPassword, claims.Provider)
}

func TestIssuer_RejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer([]byte("secret-a")).Issue(testSession(time.Hour))
	require.NoError(t, err)

	_, err = NewIssuer([]byte("secret-b")).Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"))
	token, err := issuer.Issue(testSession(-time.Minute))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	_, err := NewIssuer([]byte("test-secret")).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "sess-1",
		Subject:   "uid-1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("test-secret")).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsForeignIssuer(t *testing.T) {
	secret := []byte("test-secret")
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "sess-1",
		Subject:   "uid-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewIssuer(secret).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
