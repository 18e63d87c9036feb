// Package handler internal/infrastructure/handler/pivot_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/domain/service"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// MaxDateParam is the query parameter carrying the optional date bound
const MaxDateParam = "max_date"

// PivotHandler handles HTTP requests for rate pivots
type PivotHandler struct {
	service service.Pivoter
	logger  logger.Logger
	version string
}

// NewPivotHandler creates a new pivot handler
func NewPivotHandler(service service.Pivoter, log logger.Logger, version string) *PivotHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &PivotHandler{
		service: service,
		logger:  log,
		version: version,
	}
}

// Pivot handles POST /pivot: the body is a rate document, the response its price series
func (h *PivotHandler) Pivot(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	bound := r.URL.Query().Get(MaxDateParam)

	h.logger.Info("Handling pivot request", map[string]interface{}{
		"request_id": requestID,
		"max_date":   bound,
	})

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Request body too large", map[string]interface{}{
				"request_id": requestID,
				"limit":      tooLarge.Limit,
			})
			sendErrorResponse(w, h.logger, "Request body too large",
				"The rate document exceeds the configured size limit", http.StatusRequestEntityTooLarge, requestID)
			return
		}
		h.logger.Warn("Failed to read request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be read", http.StatusBadRequest, requestID)
		return
	}

	series, err := h.service.TransformDocument(r.Context(), body, bound)
	if err != nil {
		// Handle different types of errors
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			sendErrorResponse(w, h.logger, "Invalid max date",
				err.Error(), http.StatusBadRequest, requestID)
		case errors.Is(err, apperrors.ErrParse):
			sendErrorResponse(w, h.logger, "Invalid request body",
				"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		case errors.Is(err, apperrors.ErrMalformedInput):
			sendErrorResponse(w, h.logger, "Malformed rate document",
				err.Error(), http.StatusUnprocessableEntity, requestID)
		case errors.Is(err, apperrors.ErrLimitExceeded):
			sendErrorResponse(w, h.logger, "Fill range too large",
				err.Error(), http.StatusUnprocessableEntity, requestID)
		default:
			h.logger.Error("Unexpected error in pivot handler", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			sendErrorResponse(w, h.logger, "Internal server error",
				"An unexpected error occurred. Please try again later.",
				http.StatusInternalServerError, requestID)
		}
		return
	}

	h.logger.Info("Pivot request served", map[string]interface{}{
		"request_id": requestID,
		"currencies": len(series),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(series); err != nil {
		h.logger.Error("Failed to encode pivot response", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
	}
}

// Health handles GET /health
func (h *PivotHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: h.version})
}

// RegisterRoutes registers the pivot handler routes
func (h *PivotHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/pivot", h.Pivot).Methods(http.MethodPost)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	h.logger.Info("Pivot routes registered", map[string]interface{}{
		"routes": []string{
			"POST /pivot",
			"GET /health",
		},
	})
}

// sendErrorResponse writes a JSON error body with the given status
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
