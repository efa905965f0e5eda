package main

import (
	"errors"
	"net/http"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/session"
)

var (
	ErrInvalidID = errors.New("invalid ID format")
)

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Cap     *int64 `json:"cap,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Partial bool   `json:"partial,omitempty"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusInternalServerError, errorBody{Error: "the server encountered a problem"})
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

func (app *application) notFoundError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusNotFound, errorBody{Error: "not found"})
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJsonError(w, http.StatusConflict, errorBody{Error: err.Error(), Kind: "conflict"})
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, msg string) {
	app.logger.Warnw("service unavailable", "method", r.Method, "path", r.URL.Path, "reason", msg)

	writeJsonError(w, http.StatusServiceUnavailable, errorBody{Error: msg})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJsonError(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, retry after: " + retryAfter})
}

// errorResponse maps domain errors to status codes. Rejections the customer
// can act on carry their reason code so the client can explain them.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *domain.ValidationError
		promotionErr   *domain.PromotionError
		pointsErr      *domain.PointsError
		persistenceErr *domain.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJsonError(w, http.StatusBadRequest, errorBody{
			Error: validationErr.Message,
			Kind:  "validation",
			Code:  string(validationErr.Code),
			Field: validationErr.Field,
		})
	case errors.As(err, &promotionErr):
		writeJsonError(w, http.StatusUnprocessableEntity, errorBody{
			Error: promotionErr.Error(),
			Kind:  "promotion",
			Code:  string(promotionErr.Reason),
		})
	case errors.As(err, &pointsErr):
		limit := pointsErr.Cap
		writeJsonError(w, http.StatusUnprocessableEntity, errorBody{
			Error: pointsErr.Error(),
			Kind:  "points",
			Code:  string(pointsErr.Reason),
			Cap:   &limit,
		})
	case errors.Is(err, domain.ErrNotFound):
		app.notFoundError(w, r, err)
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrStaleRequest),
		errors.Is(err, session.ErrCheckoutInProgress):
		app.conflictResponse(w, r, err)
	case errors.As(err, &persistenceErr):
		app.logger.Errorw("persistence failure",
			"method", r.Method,
			"path", r.URL.Path,
			"op", persistenceErr.Op,
			"order_id", persistenceErr.OrderID,
			"partial", persistenceErr.Partial,
			"error", persistenceErr.Err,
		)
		writeJsonError(w, http.StatusInternalServerError, errorBody{
			Error:   "checkout failed: " + persistenceErr.Err.Error(),
			Kind:    "persistence",
			OrderID: persistenceErr.OrderID,
			Partial: persistenceErr.Partial,
		})
	default:
		app.internalServerError(w, r, err)
	}
}
