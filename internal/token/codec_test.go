package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-api/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()

	codec, err := NewCodec("test-secret", WithClock(clock.Now), WithActionTTL(30*time.Minute))
	require.NoError(t, err)
	return codec
}

func requireInvalid(t *testing.T, err error, reason string) {
	t.Helper()

	var invalidErr *InvalidError
	require.ErrorAs(t, err, &invalidErr)
	if reason != "" {
		assert.Equal(t, reason, invalidErr.Reason)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("   ")
	require.Error(t, err)
}

func TestBearerRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now().UTC()}
	codec := newTestCodec(t, clock)

	raw, issued, err := codec.IssueBearer("alice", 15*time.Minute, model.TokenAccess)
	require.NoError(t, err)
	require.NotEmpty(t, issued.TokenID)

	claims, err := codec.VerifyBearer(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.False(t, claims.Refresh)
	assert.Equal(t, model.TokenAccess, claims.Kind())
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.WithinDuration(t, clock.now.Add(15*time.Minute), claims.ExpiresAt, time.Second)
}

func TestBearerRefreshFlag(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now().UTC()}
	codec := newTestCodec(t, clock)

	raw, _, err := codec.IssueBearer("alice", time.Hour, model.TokenRefresh)
	require.NoError(t, err)

	claims, err := codec.VerifyBearer(raw)
	require.NoError(t, err)
	assert.True(t, claims.Refresh)
	assert.Equal(t, model.TokenRefresh, claims.Kind())
}

func TestBearerTokenIDsAreUnique(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, &fakeClock{now: time.Now()})

	_, first, err := codec.IssueBearer("alice", time.Minute, model.TokenAccess)
	require.NoError(t, err)
	_, second, err := codec.IssueBearer("alice", time.Minute, model.TokenAccess)
	require.NoError(t, err)

	assert.NotEqual(t, first.TokenID, second.TokenID)
}

func TestVerifyBearerFailures(t *testing.T) {
	t.Parallel()

	t.Run("expired", func(t *testing.T) {
		clock := &fakeClock{now: time.Now().UTC()}
		codec := newTestCodec(t, clock)

		raw, _, err := codec.IssueBearer("alice", time.Minute, model.TokenAccess)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "token is expired")
	})

	t.Run("malformed", func(t *testing.T) {
		codec := newTestCodec(t, &fakeClock{now: time.Now()})

		_, err := codec.VerifyBearer("definitely.not.ajwt")
		requireInvalid(t, err, "token is malformed")

		_, err = codec.VerifyBearer("")
		requireInvalid(t, err, "")
	})

	t.Run("wrong secret", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		codec := newTestCodec(t, clock)
		other, err := NewCodec("other-secret", WithClock(clock.Now))
		require.NoError(t, err)

		raw, _, err := other.IssueBearer("alice", time.Minute, model.TokenAccess)
		require.NoError(t, err)

		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "signature is invalid")
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		codec := newTestCodec(t, &fakeClock{now: time.Now()})

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub":      "alice",
			"token_id": "abc",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "")
	})

	t.Run("missing token id", func(t *testing.T) {
		codec := newTestCodec(t, &fakeClock{now: time.Now()})

		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "missing token data")
	})

	t.Run("missing expiry", func(t *testing.T) {
		codec := newTestCodec(t, &fakeClock{now: time.Now()})

		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":      "alice",
			"token_id": "abc",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "token is missing required claims")
	})
}

// Expiry must be compared as absolute instants. A clock reporting a far
// offset zone must agree with a UTC clock about when the token expires.
func TestExpiryIgnoresClockTimezone(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kiribati := time.FixedZone("UTC+14", 14*60*60)
	honolulu := time.FixedZone("UTC-10", -10*60*60)

	issuer, err := NewCodec("test-secret", WithClock(func() time.Time { return base.In(kiribati) }))
	require.NoError(t, err)

	raw, claims, err := issuer.IssueBearer("alice", 10*time.Minute, model.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, claims.ExpiresAt.Location())
	assert.True(t, claims.ExpiresAt.Equal(base.Add(10*time.Minute)))

	stillValid, err := NewCodec("test-secret", WithClock(func() time.Time { return base.Add(9 * time.Minute).In(honolulu) }))
	require.NoError(t, err)
	_, err = stillValid.VerifyBearer(raw)
	require.NoError(t, err)

	expired, err := NewCodec("test-secret", WithClock(func() time.Time { return base.Add(11 * time.Minute).In(honolulu) }))
	require.NoError(t, err)
	_, err = expired.VerifyBearer(raw)
	requireInvalid(t, err, "token is expired")
}

func TestActionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now().UTC()}
	codec := newTestCodec(t, clock)

	raw, err := codec.IssueAction("Alice@Example.com", PurposeEmailVerification)
	require.NoError(t, err)
	assert.NotContains(t, raw, "+")
	assert.NotContains(t, raw, "/")
	assert.False(t, strings.Contains(raw, "="))

	email, err := codec.VerifyAction(raw, PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestActionTokenExpires(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now().UTC()}
	codec := newTestCodec(t, clock)

	raw, err := codec.IssueAction("alice@example.com", PurposePasswordReset)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	_, err = codec.VerifyAction(raw, PurposePasswordReset)
	requireInvalid(t, err, "token is expired")
}

func TestTokenFamiliesAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, &fakeClock{now: time.Now().UTC()})

	t.Run("action token rejected as bearer", func(t *testing.T) {
		raw, err := codec.IssueAction("alice@example.com", PurposeEmailVerification)
		require.NoError(t, err)

		_, err = codec.VerifyBearer(raw)
		requireInvalid(t, err, "signature is invalid")
	})

	t.Run("bearer token rejected as action", func(t *testing.T) {
		raw, _, err := codec.IssueBearer("alice", time.Hour, model.TokenAccess)
		require.NoError(t, err)

		_, err = codec.VerifyAction(raw, PurposeEmailVerification)
		requireInvalid(t, err, "")
	})

	t.Run("verification token rejected for password reset", func(t *testing.T) {
		raw, err := codec.IssueAction("alice@example.com", PurposeEmailVerification)
		require.NoError(t, err)

		_, err = codec.VerifyAction(raw, PurposePasswordReset)
		requireInvalid(t, err, "")
	})
}
