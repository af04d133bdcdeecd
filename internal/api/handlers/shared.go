package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/api/response"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondComputationError maps the engine's error taxonomy to HTTP statuses:
// invalid input is the caller's fault (400), missing entities are 404,
// insufficient data is a semantically valid request the data cannot satisfy
// (422), and everything else is a server error.
func respondComputationError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidCurrency):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrSnapshotNotFound):
		response.RespondError(w, http.StatusNotFound, message, err.Error())
	case errors.Is(err, apperrors.ErrInsufficientData):
		response.RespondError(w, http.StatusUnprocessableEntity, message, err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
