package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlab/devisio/internal/config"
)

func newTestVerifier() *Verifier {
	return NewVerifier(config.Config{AuthJWTSecret: "test-secret"})
}

func TestVerifyRoundTrip(t *testing.T) {
	v := newTestVerifier()

	token, err := v.Sign(Identity{Subject: "user-1", OrgID: "42", Role: "owner"}, time.Hour)
	require.NoError(t, err)

	ident, err := v.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.Subject)
	assert.Equal(t, "42", ident.OrgID)
	assert.Equal(t, "owner", ident.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier()

	token, err := v.Sign(Identity{Subject: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other := NewVerifier(config.Config{AuthJWTSecret: "other-secret"})
	token, err := other.Sign(Identity{Subject: "user-1"}, time.Hour)
	require.NoError(t, err)

	_, err = newTestVerifier().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestVerifier().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyHeaderShapes(t *testing.T) {
	v := newTestVerifier()

	_, err := v.VerifyHeader("")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = v.VerifyHeader("Basic abc")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	v := newTestVerifier()

	token, err := v.Sign(Identity{OrgID: "42"}, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnabled(t *testing.T) {
	assert.True(t, newTestVerifier().Enabled())
	assert.False(t, NewVerifier(config.Config{}).Enabled())
}
