package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"go-todo-api/internal/model"
)

// Purpose scopes an action token to a single flow. Each purpose signs with
// its own derived key, so tokens are not interchangeable between flows.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email-verification"
	PurposePasswordReset     Purpose = "password-reset"
)

const (
	defaultActionTTL = time.Hour
	actionKeyInfo    = "go-todo-api action token"
)

// InvalidError is returned for every expected verification failure.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return "invalid token: " + e.Reason
}

func invalid(reason string) *InvalidError {
	return &InvalidError{Reason: reason}
}

type bearerClaims struct {
	TokenID string `json:"token_id"`
	Refresh bool   `json:"refresh"`
	jwt.RegisteredClaims
}

type actionClaims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret    []byte
	actionTTL time.Duration
	now       func() time.Time
}

type Option func(*Codec)

// WithClock overrides the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func WithActionTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.actionTTL = ttl
		}
	}
}

func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}

	c := &Codec{
		secret:    []byte(secret),
		actionTTL: defaultActionTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) ActionTTL() time.Duration {
	return c.actionTTL
}

func (c *Codec) IssueBearer(subject string, ttl time.Duration, kind model.TokenKind) (string, model.BearerClaims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", model.BearerClaims{}, errors.New("token subject is required")
	}

	now := c.now().UTC()
	claims := bearerClaims{
		TokenID: uuid.NewString(),
		Refresh: kind == model.TokenRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", model.BearerClaims{}, fmt.Errorf("sign bearer token: %w", err)
	}

	return signed, claims.toModel(), nil
}

func (c *Codec) VerifyBearer(raw string) (model.BearerClaims, error) {
	var claims bearerClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, c.parserOptions()...)
	if err != nil {
		return model.BearerClaims{}, invalid(reasonFor(err))
	}

	if claims.Subject == "" || claims.TokenID == "" {
		return model.BearerClaims{}, invalid("missing token data")
	}

	return claims.toModel(), nil
}

func (c *Codec) IssueAction(email string, purpose Purpose) (string, error) {
	key, err := c.actionKey(purpose)
	if err != nil {
		return "", err
	}

	now := c.now().UTC()
	claims := actionClaims{
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.actionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign action token: %w", err)
	}

	return signed, nil
}

// VerifyAction returns the email carried by an action token issued for purpose.
func (c *Codec) VerifyAction(raw string, purpose Purpose) (string, error) {
	key, err := c.actionKey(purpose)
	if err != nil {
		return "", err
	}

	var claims actionClaims
	opts := append(c.parserOptions(), jwt.WithAudience(string(purpose)))
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return "", invalid(reasonFor(err))
	}

	if claims.Purpose != purpose || claims.Email == "" {
		return "", invalid("missing token data")
	}

	return claims.Email, nil
}

func (c *Codec) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
	}
}

func (c *Codec) actionKey(purpose Purpose) ([]byte, error) {
	if purpose == "" {
		return nil, errors.New("action token purpose is required")
	}

	key := make([]byte, sha256.Size)
	reader := hkdf.New(sha256.New, c.secret, []byte(purpose), []byte(actionKeyInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive action key: %w", err)
	}

	return key, nil
}

func (c bearerClaims) toModel() model.BearerClaims {
	out := model.BearerClaims{
		Subject: c.Subject,
		TokenID: c.TokenID,
		Refresh: c.Refresh,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature is invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token has the wrong purpose"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "token is missing required claims"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token is unverifiable"
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "token is not valid yet"
	default:
		return "token is invalid"
	}
}
