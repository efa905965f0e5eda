package main

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status         string            `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
	Services       map[string]string `json:"services"`
	ActiveSessions int               `json:"active_sessions"`
}

// healthcheckHandler godoc
//
//	@Summary		Healthcheck
//	@Description	Reports the state of MongoDB, RabbitMQ and the optional Redis cache
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	// check db
	dbStatus := "ok"
	if err := app.storage.Ping(r.Context()); err != nil {
		dbStatus = "error"
	}

	queueStatus := "ok"
	if hc, ok := app.broker.(interface{ Healthy() bool }); ok && !hc.Healthy() {
		queueStatus = "error"
	}

	// cache is optional, so an absent one does not make the service unhealthy
	cacheStatus := "disabled"
	if app.cache != nil {
		cacheStatus = "ok"
		if err := app.cache.Ping(r.Context()); err != nil {
			cacheStatus = "error"
		}
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services: map[string]string{
			"database": dbStatus,
			"queue":    queueStatus,
			"cache":    cacheStatus,
		},
		ActiveSessions: app.sessions.Len(),
	}

	// if any service is down, mark as unhealthy
	if dbStatus != "ok" || queueStatus != "ok" {
		response.Status = "unhealthy"
		if err := writeJson(w, http.StatusServiceUnavailable, response); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	if cacheStatus == "error" {
		response.Status = "degraded"
	}

	if err := writeJson(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
