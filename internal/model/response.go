package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthStatus struct {
	Ping                 string            `json:"ping"`
	Message              string            `json:"message"`
	IsApplicationHealthy bool              `json:"is_application_healthy"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
}
