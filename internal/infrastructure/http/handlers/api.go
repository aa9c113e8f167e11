// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/infrastructure/monitoring"
	apperrors "github.com/wellpack/engine/pkg/errors"
)

const maxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps err to an AppError and writes the error envelope
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := toAppError(err)
	status := appErr.StatusCode()

	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.String("trace_id", monitoring.TraceIDFromContext(r.Context())),
		zap.Error(err),
	}
	switch {
	case appErr.Code == apperrors.CodeInvariantViolation:
		logger.Error("Plan invariant violation", append(fields, zap.Bool("invariant_violation", true))...)
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed", fields...)
	default:
		logger.Debug("Request rejected", fields...)
	}

	writeJSON(w, logger, status, apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// toAppError translates domain and context errors into API error codes
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var insufficient *plan.InsufficientCatalogError
	var invariant *plan.InvariantError
	switch {
	case errors.As(err, &insufficient):
		return apperrors.NewInsufficientCatalogError(insufficient.Needed, insufficient.Selected, err)
	case errors.As(err, &invariant):
		return apperrors.NewInvariantViolationError(invariant.Invariant, err)
	case errors.Is(err, plan.ErrInsufficientCatalog):
		return apperrors.NewAppError(apperrors.CodeInsufficientCatalog, "Not enough safe items to fill the pack", "").WithCause(err)
	case errors.Is(err, plan.ErrInvariantViolation):
		return apperrors.NewAppError(apperrors.CodeInvariantViolation, "Plan failed final validation", "").WithCause(err)
	case errors.Is(err, plan.ErrPlanNotFound):
		return apperrors.NewAppError(apperrors.CodePlanNotFound, "Plan not found", "").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("plan request", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewAppError(apperrors.CodeServiceUnavailable, "Request canceled", "").WithCause(err)
	default:
		return apperrors.Wrap(err, "An unexpected error occurred")
	}
}

// decodeJSON reads a single JSON document from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.NewBadRequestError("Request body is empty")
		case errors.As(err, &maxErr):
			return apperrors.NewBadRequestError(fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes))
		default:
			return apperrors.NewBadRequestError("Request body is not valid JSON").WithCause(err)
		}
	}
	if dec.More() {
		return apperrors.NewBadRequestError("Request body must contain a single JSON object")
	}
	return nil
}
