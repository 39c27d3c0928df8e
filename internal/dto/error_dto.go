package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   bool    `json:"error"`
	Message string  `json:"message"`
	Code    string  `json:"code,omitempty"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Issue describes one failed validation rule.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func Err(message string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message}
}

func ErrCode(code, message string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message, Code: code}
}

func Invalid(issues []Issue) ErrorResponse {
	return ErrorResponse{Error: true, Message: "Validation failed", Code: "VALIDATION_ERROR", Issues: issues}
}
