package handler

import (
	"net/http"

	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires the pivot routes, the optional metrics endpoint and the middleware chain
func NewRouter(h *PivotHandler, metricsHandler http.Handler, log logger.Logger, bodyLimit int64) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.BodyLimitMiddleware(bodyLimit))

	h.RegisterRoutes(router)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	return router
}
