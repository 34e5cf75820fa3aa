package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	// Status is "failed" when a collection cycle could not complete
	Status string `json:"status,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsBadRequest returns true for 400 responses, such as a server without a project id
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsRateLimited returns true if the server rejected the trigger with 429
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsCycleFailure returns true if a collection cycle ran and failed
func (e *APIError) IsCycleFailure() bool {
	return e.Status == "failed"
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// parseAPIError decodes any of the server's error bodies: an envelope with
// an error object, a failed cycle, or a bare error string
func parseAPIError(status int, body []byte) error {
	var raw struct {
		Status string          `json:"status"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Error) == 0 {
		return &APIError{StatusCode: status, Message: string(body)}
	}

	apiErr := &APIError{StatusCode: status, Status: raw.Status}
	if err := json.Unmarshal(raw.Error, &apiErr.Message); err == nil {
		return apiErr
	}

	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw.Error, &detail); err != nil {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	apiErr.Code = detail.Code
	apiErr.Message = detail.Message
	return apiErr
}
