package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-todo-api/internal/model"
	"go-todo-api/pkg/apierror"
)

func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiErr := apierror.RequestTimeout()
	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: apiErr.Code, Message: apiErr.Message},
	})

	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, timeout, string(body))
		// TimeoutHandler writes its message straight to w, so the JSON
		// content type has to be in place before it runs. Headers set by
		// next still replace it on the normal path.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}
