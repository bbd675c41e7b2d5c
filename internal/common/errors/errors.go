// Package errors provides standardized error handling for the matching engine.
package errors

import (
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
	ErrCodeProfileNotFound      ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileInvalid       ErrorCode = "PROFILE_INVALID"
	ErrCodeAssessmentNotFound   ErrorCode = "ASSESSMENT_NOT_FOUND"
	ErrCodeDictionaryInvalid    ErrorCode = "DICTIONARY_INVALID"
	ErrCodeDictionaryKeyMissing ErrorCode = "DICTIONARY_KEY_MISSING"

	ErrCodeCatalogConnectionFailed ErrorCode = "CATALOG_CONNECTION_FAILED"
	ErrCodeCatalogSearchFailed     ErrorCode = "CATALOG_SEARCH_FAILED"
	ErrCodeCatalogTimeout          ErrorCode = "CATALOG_TIMEOUT"
	ErrCodeCatalogRateLimited      ErrorCode = "CATALOG_RATE_LIMITED"
	ErrCodeListingNotFound         ErrorCode = "LISTING_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeCacheConnectionFailed ErrorCode = "CACHE_CONNECTION_FAILED"
	ErrCodeCacheOperationFailed  ErrorCode = "CACHE_OPERATION_FAILED"

	ErrCodeSearchSpecInvalid   ErrorCode = "SEARCH_SPEC_INVALID"
	ErrCodeScoringFailed       ErrorCode = "SCORING_FAILED"
	ErrCodeFeedbackInvalid     ErrorCode = "FEEDBACK_INVALID"
	ErrCodeRefreshRunFailed    ErrorCode = "REFRESH_RUN_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewProfileNotFoundError creates a non-retryable missing profile error.
func NewProfileNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "User profile not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileInvalidError creates a non-retryable profile validation error.
func NewProfileInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileInvalid,
		Message:   "User profile failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssessmentNotFoundError creates a non-retryable missing assessment error.
func NewAssessmentNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssessmentNotFound,
		Message:   "Assessment result not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDictionaryInvalidError creates a non-retryable dictionary schema error.
func NewDictionaryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDictionaryInvalid,
		Message:   "Matching dictionary failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDictionaryKeyMissingError creates a non-retryable dictionary lookup error.
func NewDictionaryKeyMissingError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDictionaryKeyMissing,
		Message:   "Matching dictionary key not found",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogConnectionFailedError creates a retryable catalog connection error.
func NewCatalogConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogConnectionFailed,
		Message:   "Listing catalog connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogSearchFailedError creates a retryable catalog search error.
func NewCatalogSearchFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogSearchFailed,
		Message:   "Listing catalog search error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogTimeoutError creates a retryable catalog timeout error.
func NewCatalogTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogTimeout,
		Message:   "Listing catalog request timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogRateLimitedError creates a retryable rate-limit error.
func NewCatalogRateLimitedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogRateLimited,
		Message:   "Listing catalog rate limit exceeded",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingNotFoundError creates a non-retryable missing listing error.
func NewListingNotFoundError(listingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found in catalog",
		Details:   fmt.Sprintf("listingId: %s", listingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheConnectionFailedError creates a retryable cache connection error.
func NewCacheConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheConnectionFailed,
		Message:   "Cache connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheOperationFailedError creates a retryable cache operation error.
func NewCacheOperationFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheOperationFailed,
		Message:   "Cache operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchSpecInvalidError creates a non-retryable search spec error.
func NewSearchSpecInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchSpecInvalid,
		Message:   "Search spec failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailedError creates a non-retryable scoring error.
func NewScoringFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "Candidate scoring failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFeedbackInvalidError creates a non-retryable feedback validation error.
func NewFeedbackInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeedbackInvalid,
		Message:   "Feedback signal failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRefreshRunFailedError creates a retryable refresh run error.
func NewRefreshRunFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRefreshRunFailed,
		Message:   "Recommendation refresh run failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogConnectionFailed,
		ErrCodeCatalogSearchFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheConnectionFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeNotificationFailed,
		ErrCodeRefreshRunFailed:
		return 3 // Retryable technical errors

	case ErrCodeCatalogTimeout,
		ErrCodeQueryTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeCatalogRateLimited:
		return 1 // Back off once, then surface

	default:
		return 0 // Business errors: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "ASSESSMENT"):
		return "USER_DATA"
	case strings.Contains(codeStr, "DICTIONARY"):
		return "DICTIONARY"
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "LISTING"):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
