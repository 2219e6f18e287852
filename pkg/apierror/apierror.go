package apierror

import (
	"fmt"
	"net/http"
)

// Stable error codes returned in the "code" field of every error envelope.
// Clients branch on these instead of on messages.
const (
	CodeInvalidToken          = "CE001"
	CodeRevokedToken          = "CE002"
	CodeAccessTokenRequired   = "CE003"
	CodeRefreshTokenRequired  = "CE004"
	CodeInvalidCredentials    = "CE005"
	CodeUserAlreadyExists     = "CE006"
	CodeInsufficientPerms     = "CE007"
	CodeUnverifiedUser        = "CE008"
	CodeInactiveUser          = "CE009"
	CodeInvalidTokenData      = "CE010"
	CodeInvalidVerifyToken    = "CE011"
	CodeResourceNotFound      = "CE012"
	CodePasswordsMismatch     = "CE013"
	CodeUserInactiveOrMissing = "CE014"
	CodeInvalidBody           = "CE015"
	CodeInvalidResetToken     = "CE016"
	CodeInvalidParameter      = "CE017"
	CodeRateLimited           = "CE018"
	CodeInternal              = "SE001"
	CodeRevocationUnavailable = "SE002"
	CodeRequestTimeout        = "SE003"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details string) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

func InvalidToken(reason string) *APIError {
	return New(CodeInvalidToken, "invalid or expired token, please get a new token", reason, http.StatusUnauthorized)
}

func RevokedToken() *APIError {
	return New(CodeRevokedToken, "invalid or revoked token, please get a new token", "", http.StatusUnauthorized)
}

func AccessTokenRequired() *APIError {
	return New(CodeAccessTokenRequired, "please provide an access token", "", http.StatusUnauthorized)
}

func RefreshTokenRequired() *APIError {
	return New(CodeRefreshTokenRequired, "please provide a refresh token", "", http.StatusUnauthorized)
}

func InvalidCredentials() *APIError {
	return New(CodeInvalidCredentials, "incorrect username or password", "", http.StatusUnauthorized)
}

func UserAlreadyExists() *APIError {
	return New(CodeUserAlreadyExists, "a user with the provided data already exist", "", http.StatusBadRequest)
}

func InsufficientPermission() *APIError {
	return New(CodeInsufficientPerms, "not enough permissions for this operation", "", http.StatusForbidden)
}

func UnverifiedUser() *APIError {
	return New(CodeUnverifiedUser, "user not verified", "", http.StatusForbidden)
}

func InactiveUser() *APIError {
	return New(CodeInactiveUser, "user is inactive", "", http.StatusForbidden)
}

func InvalidTokenData() *APIError {
	return New(CodeInvalidTokenData, "could not validate token data", "", http.StatusUnauthorized)
}

func InvalidVerifyToken() *APIError {
	return New(CodeInvalidVerifyToken, "invalid user verification token", "", http.StatusBadRequest)
}

func NotFound(resource string) *APIError {
	return New(CodeResourceNotFound, "resource not found", resource, http.StatusNotFound)
}

func PasswordsMismatch() *APIError {
	return New(CodePasswordsMismatch, "passwords do not match", "", http.StatusBadRequest)
}

func UserInactiveOrNotFound() *APIError {
	return New(CodeUserInactiveOrMissing, "user not found or is inactive. If this is a mistake, please contact us for support", "", http.StatusBadRequest)
}

func InvalidBody(details string) *APIError {
	return New(CodeInvalidBody, "invalid request body", details, http.StatusBadRequest)
}

func InvalidResetToken() *APIError {
	return New(CodeInvalidResetToken, "invalid password reset token", "", http.StatusBadRequest)
}

func InvalidParameter(name string) *APIError {
	return New(CodeInvalidParameter, "invalid request parameter", name, http.StatusBadRequest)
}

func Internal() *APIError {
	return New(CodeInternal, "something went wrong while processing the request", "", http.StatusInternalServerError)
}

func RevocationUnavailable() *APIError {
	return New(CodeRevocationUnavailable, "token revocation check is unavailable, please retry later", "", http.StatusInternalServerError)
}

func RateLimited() *APIError {
	return New(CodeRateLimited, "too many requests", "", http.StatusTooManyRequests)
}

func RequestTimeout() *APIError {
	return New(CodeRequestTimeout, "request timed out", "", http.StatusServiceUnavailable)
}
