package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"go-todo-api/internal/middleware"
	"go-todo-api/internal/model"
	"go-todo-api/internal/revocation"
	"go-todo-api/internal/token"
	"go-todo-api/pkg/apierror"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
	maxBodyBytes     = 1 << 20
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"code", apiErr.Code,
			"error", err.Error(),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

func toAPIError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	var invalidToken *token.InvalidError
	var validationErrs validation.Errors

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &invalidToken):
		return apierror.InvalidToken(invalidToken.Reason)
	case errors.As(err, &validationErrs):
		return apierror.InvalidBody(validationErrs.Error())
	case errors.Is(err, revocation.ErrUnavailable):
		return apierror.RevocationUnavailable()
	case errors.Is(err, model.ErrUserAlreadyExists):
		return apierror.UserAlreadyExists()
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("user")
	case errors.Is(err, model.ErrTodoListNotFound):
		return apierror.NotFound("todo list")
	case errors.Is(err, model.ErrTodoItemNotFound):
		return apierror.NotFound("todo item")
	default:
		return apierror.Internal()
	}
}

// decodeJSON reads a JSON body into dst and runs its validation rules.
func decodeJSON(r *http.Request, dst validation.Validatable) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.InvalidBody("request body is empty")
		}
		return apierror.InvalidBody(err.Error())
	}

	if err := dst.Validate(); err != nil {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return err
		}
		return apierror.InvalidBody(err.Error())
	}
	return nil
}

// pagination reads offsetKey and limit from the query string.
func pagination(r *http.Request, offsetKey string) (int, int, error) {
	query := r.URL.Query()

	offset, err := parseNonNegative(query.Get(offsetKey), 0)
	if err != nil {
		return 0, 0, apierror.InvalidParameter(offsetKey)
	}
	limit, err := parseNonNegative(query.Get("limit"), defaultPageLimit)
	if err != nil || limit == 0 {
		return 0, 0, apierror.InvalidParameter("limit")
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit, nil
}

func parseNonNegative(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("not a non-negative integer")
	}
	return v, nil
}

func principalFromRequest(r *http.Request) (model.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return model.Principal{}, apierror.InvalidToken("authentication required")
	}
	return principal, nil
}
