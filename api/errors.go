package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	orchestratorx "github.com/tanpawarit/chative-support/agent/agents/orchestrator"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrorCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type APIError struct {
	Code       ErrorCode
	StatusCode int
	Message    string
}

func NewAPIError(code ErrorCode, statusCode int, message string) *APIError {
	return &APIError{Code: code, StatusCode: statusCode, Message: message}
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{Error: string(e.Code), Message: e.Message}
}

func NewInvalidRequestError(format string, args ...any) *APIError {
	return NewAPIError(ErrorCodeInvalidRequest, http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func NewNotFoundError(format string, args ...any) *APIError {
	return NewAPIError(ErrorCodeNotFound, http.StatusNotFound, fmt.Sprintf(format, args...))
}

func NewTooManyRequestsError(message string) *APIError {
	return NewAPIError(ErrorCodeTooManyRequests, http.StatusTooManyRequests, message)
}

func NewInternalError(message string) *APIError {
	return NewAPIError(ErrorCodeInternalError, http.StatusInternalServerError, message)
}

// toAPIError maps core errors onto their HTTP meaning. Anything unknown is a 500.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, orchestratorx.ErrInvalidMessage):
		return NewInvalidRequestError("Message is required")
	case errors.Is(err, orchestratorx.ErrConversationNotFound):
		return NewNotFoundError("Conversation not found")
	default:
		return NewInternalError("Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, apiErr.StatusCode, apiErr.Response())
}
