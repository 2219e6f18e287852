package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-todo-api/internal/model"
	"go-todo-api/internal/revocation"
	"go-todo-api/internal/token"
	"go-todo-api/pkg/apierror"
)

type tokenVerifier interface {
	VerifyBearer(raw string) (model.BearerClaims, error)
}

type accountResolver interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// RejectionObserver is told the error code of every request the guard turns away.
type RejectionObserver interface {
	GuardRejected(code string)
}

type contextKey string

const principalContextKey contextKey = "principal"

type AuthMiddleware struct {
	verifier    tokenVerifier
	revocations revocation.Store
	accounts    accountResolver
	observer    RejectionObserver
}

func NewAuthMiddleware(verifier tokenVerifier, revocations revocation.Store, accounts accountResolver, observer RejectionObserver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		revocations: revocations,
		accounts:    accounts,
		observer:    observer,
	}
}

// Authenticate resolves the bearer token of the required kind into a
// Principal stored on the request context.
func (m *AuthMiddleware) Authenticate(kind model.TokenKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, apiErr := m.authenticate(r, kind)
			if apiErr != nil {
				m.reject(w, apiErr)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AuthMiddleware) authenticate(r *http.Request, kind model.TokenKind) (model.Principal, *apierror.APIError) {
	raw, ok := bearerToken(r)
	if !ok {
		return model.Principal{}, apierror.InvalidToken("missing or malformed authorization header")
	}

	claims, err := m.verifier.VerifyBearer(raw)
	if err != nil {
		var invalid *token.InvalidError
		if errors.As(err, &invalid) {
			return model.Principal{}, apierror.InvalidToken(invalid.Reason)
		}
		return model.Principal{}, apierror.InvalidToken("")
	}

	if claims.Kind() != kind {
		if kind == model.TokenRefresh {
			return model.Principal{}, apierror.RefreshTokenRequired()
		}
		return model.Principal{}, apierror.AccessTokenRequired()
	}

	revoked, err := m.revocations.IsRevoked(r.Context(), claims.TokenID)
	if err != nil {
		slog.ErrorContext(r.Context(), "revocation lookup failed", "token_id", claims.TokenID, "error", err)
		return model.Principal{}, apierror.RevocationUnavailable()
	}
	if revoked {
		return model.Principal{}, apierror.RevokedToken()
	}

	user, err := m.accounts.GetByUsername(r.Context(), claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Principal{}, apierror.InvalidTokenData()
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "account lookup failed", "subject", claims.Subject, "error", err)
		return model.Principal{}, apierror.Internal()
	}

	return model.Principal{Claims: claims, User: user}, nil
}

// RequireActive rejects inactive accounts. It must run after Authenticate.
func (m *AuthMiddleware) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			m.reject(w, apierror.InvalidToken("authentication required"))
			return
		}
		if !principal.User.IsActive {
			m.reject(w, apierror.InactiveUser())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles admits verified accounts holding one of roles.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.reject(w, apierror.InvalidToken("authentication required"))
				return
			}
			if !principal.User.IsVerified {
				m.reject(w, apierror.UnverifiedUser())
				return
			}
			if _, exists := allowed[principal.User.Role]; !exists {
				m.reject(w, apierror.InsufficientPermission())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, apiErr *apierror.APIError) {
	if m.observer != nil {
		m.observer.GuardRejected(apiErr.Code)
	}
	writeAPIError(w, apiErr)
}

func WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}
