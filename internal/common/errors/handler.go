// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler normalizes and logs pipeline step failures and decides
// whether a step should be retried.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleStepError normalizes the error, logs it with run context and
// returns the remaining retries the caller should attempt.
func (h *ErrorHandler) HandleStepError(runID, step string, err error) int {
	stdErr := h.NormalizeError(err)

	h.logError(runID, step, stdErr)

	if !stdErr.Retryable {
		return 0
	}
	return GetRetryCount(stdErr.Code)
}

// NormalizeError ensures we always have a StandardError.
func (h *ErrorHandler) NormalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(runID, step string, stdErr *StandardError) {
	h.logger.Error("Pipeline step failed", map[string]interface{}{
		"runId":         runID,
		"step":          step,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"retries":       GetRetryCount(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
