// Package httpx holds the request decoding and error rendering shared by the
// feature controllers.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logiledger/internal/dto"
	apperrors "logiledger/internal/errors"
)

type traceIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID returns the id assigned by the router, or a fresh one.
func TraceID(r *http.Request) string {
	if traceID, ok := r.Context().Value(traceIDKey{}).(string); ok && traceID != "" {
		return traceID
	}
	return uuid.New().String()
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError renders err with the status its kind maps to. Unknown errors
// are logged and hidden behind a generic 500.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	var details []apperrors.ValidationDetail

	if ve, ok := apperrors.IsValidationError(err); ok {
		status, code, message, details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details
	} else if ue, ok := apperrors.IsUnauthorizedError(err); ok {
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", ue.Message
	} else if fe, ok := apperrors.IsForbiddenError(err); ok {
		status, code, message = http.StatusForbidden, "FORBIDDEN", fe.Message
	} else if nfe, ok := apperrors.IsNotFoundError(err); ok {
		status, code, message = http.StatusNotFound, "NOT_FOUND", nfe.Message
	} else if ce, ok := apperrors.IsConflictError(err); ok {
		status, code, message = http.StatusConflict, "CONFLICT", ce.Message
	} else if ise, ok := apperrors.IsInvalidStateError(err); ok {
		status, code, message = http.StatusConflict, "INVALID_STATE", ise.Message
	} else if une, ok := apperrors.IsUnavailableError(err); ok {
		status, code, message = http.StatusServiceUnavailable, "UNAVAILABLE", une.Message
	}

	fields := []zap.Field{zap.String("traceId", traceID), zap.Int("status", status), zap.Error(err)}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", fields...)
	default:
		logger.Info("request rejected", fields...)
	}

	WriteJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, logger)
}
