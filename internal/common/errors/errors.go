// Package errors provides the structured error taxonomy shared by the HTTP
// API and the Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeParseError           ErrorCode = "PARSE_ERROR"
	ErrCodeInvalidBudget        ErrorCode = "INVALID_BUDGET"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeCandidateQueryFailed ErrorCode = "CANDIDATE_QUERY_FAILED"
	ErrCodeCandidateTimeout     ErrorCode = "CANDIDATE_QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound        ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeCacheUnavailable     ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeRecommendationFailed ErrorCode = "RECOMMENDATION_FAILED"
	ErrCodeWorkflowUnavailable  ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewParseError reports undecodable job variables or request bodies.
func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse input", err.Error(), false, err)
}

// NewInvalidBudgetError reports a missing, non-numeric or negative budget.
func NewInvalidBudgetError(details string) *StandardError {
	return newError(ErrCodeInvalidBudget, "Budget must be a non-negative number", details, false, nil)
}

// NewInvalidInputError reports any other caller-side validation failure.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

// NewCandidateQueryFailedError creates a retryable store error.
func NewCandidateQueryFailedError(source string, err error) *StandardError {
	e := newError(ErrCodeCandidateQueryFailed, "Failed to load candidate pool", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"source": source}
	return e
}

// NewCandidateTimeoutError creates a retryable store timeout error.
func NewCandidateTimeoutError(source string, err error) *StandardError {
	e := newError(ErrCodeCandidateTimeout, "Candidate pool query timed out", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"source": source}
	return e
}

// NewSearchQueryFailedError creates a retryable search index error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	e := newError(ErrCodeSearchQueryFailed, "Search query failed", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"index": index}
	return e
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("index: %s", index), false, nil)
}

// NewCacheUnavailableError is logged by the cache facade, never returned to callers.
func NewCacheUnavailableError(op string, err error) *StandardError {
	e := newError(ErrCodeCacheUnavailable, "Cache backend unavailable", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"operation": op}
	return e
}

// NewRecommendationFailedError wraps any unexpected engine failure.
func NewRecommendationFailedError(err error) *StandardError {
	return newError(ErrCodeRecommendationFailed, "Failed to compute recommendations", err.Error(), true, err)
}

// NewWorkflowUnavailableError reports a Zeebe gateway that could not be reached.
func NewWorkflowUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeWorkflowUnavailable, "Workflow engine unavailable", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCandidateQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeRecommendationFailed,
		ErrCodeWorkflowUnavailable:
		return 3
	case ErrCodeCandidateTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a *StandardError, or wraps it as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CANDIDATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
