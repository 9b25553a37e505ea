package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeDomainError maps domain sentinels onto HTTP statuses and writes the
// response. Unknown errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrEmptyQuestion):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, apperrors.ErrProposalNotFound), errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrVersionMismatch):
		status, code = http.StatusConflict, "version_mismatch"
	case errors.Is(err, apperrors.ErrInvalidProposalState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, apperrors.ErrDuplicateProposal):
		status, code = http.StatusConflict, "duplicate_proposal"
	case errors.Is(err, apperrors.ErrMissingCanonical):
		status, code = http.StatusBadRequest, "missing_canonical"
	default:
		logger.Error("request failed", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal", "internal server error"); writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if writeErr := ErrorResponse(w, status, code, err.Error()); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}
