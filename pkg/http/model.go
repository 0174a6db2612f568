package http

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Type    string            `json:"type"`
	Fields  []ValidationError `json:"fields,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"history"`
	Message string                 `json:"message,omitempty" example:"history is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// HealthResponse is returned by liveness and readiness probes.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}
