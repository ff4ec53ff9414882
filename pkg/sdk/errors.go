package sightline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error codes returned by the API.
const (
	CodeBadRequest              = "bad_request"
	CodeValidationFailed        = "validation_failed"
	CodeConversationNotFound    = "conversation_not_found"
	CodeEmbeddingQuotaExceeded  = "embedding_quota_exceeded"
	CodeEmbeddingProviderError  = "embedding_provider_error"
	CodeGenerationProviderError = "generation_provider_error"
	CodeInternalError           = "internal_error"
)

// APIError is a structured error response from the API.
// Use errors.As() to inspect the code and status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sightline: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound reports whether the error targets a missing conversation.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// parseAPIError decodes an error body; falls back to the raw status when
// the body is not the expected JSON shape.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil || len(raw) == 0 {
		apiErr.Code = CodeInternalError
		apiErr.Message = resp.Status
		return apiErr
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil || body.Code == "" {
		apiErr.Code = CodeInternalError
		apiErr.Message = string(raw)
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	return apiErr
}
