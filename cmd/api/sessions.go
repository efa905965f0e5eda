package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/go-chi/chi"
)

const userHeader = "X-User-ID"

type CreateSessionPayload struct {
	UserID string `json:"user_id" validate:"omitempty,max=128"`
}

type AddLinePayload struct {
	ProductID  int64               `json:"product_id" validate:"required,gt=0"`
	Quantity   int                 `json:"quantity" validate:"required,gt=0,lte=99"`
	Selections map[string][]string `json:"selections"`
	Note       string              `json:"note" validate:"max=200"`
}

// createSessionHandler godoc
//
//	@Summary		Create session
//	@Description	Opens a shopping session. Signed-in users pass their id in the body or the X-User-ID header
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateSessionPayload	false	"Owner of the session"
//	@Success		201		{object}	session.View
//	@Failure		400		{object}	errorBody
//	@Router			/sessions [post]
func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateSessionPayload
	if r.ContentLength != 0 {
		if err := readJson(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		userID = strings.TrimSpace(r.Header.Get(userHeader))
	}

	s := app.sessions.Create(userID)

	view, err := s.RefreshBalance(r.Context())
	if err != nil {
		// the session stays usable; the balance is fetched again on redemption
		app.logger.Warnw("failed to load points balance", "session_id", s.ID, "user_id", userID, "error", err)
		if view, err = s.View(); err != nil {
			app.errorResponse(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusCreated, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteSessionHandler godoc
//
//	@Summary		Delete session
//	@Tags			sessions
//	@Param			session_id	path	string	true	"Session ID"
//	@Success		204
//	@Failure		404	{object}	errorBody
//	@Router			/sessions/{session_id} [delete]
func (app *application) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := getSessionFromCtx(r)

	if !app.sessions.Delete(s.ID) {
		app.notFoundError(w, r, domain.ErrNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getCartHandler godoc
//
//	@Summary		Get cart
//	@Description	Returns the cart with live pricing
//	@Tags			cart
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	session.View
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	view, err := getSessionFromCtx(r).View()
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// addCartLineHandler godoc
//
//	@Summary		Add to cart
//	@Description	Adds a product with its modifier selections; identical configurations merge
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path		string			true	"Session ID"
//	@Param			payload		body		AddLinePayload	true	"Line to add"
//	@Success		200			{object}	session.View
//	@Failure		400			{object}	errorBody
//	@Failure		404			{object}	errorBody
//	@Failure		409			{object}	errorBody
//	@Router			/sessions/{session_id}/cart/lines [post]
func (app *application) addCartLineHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddLinePayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := getSessionFromCtx(r).AddLine(
		r.Context(),
		payload.ProductID,
		payload.Quantity,
		cart.Selections(payload.Selections),
		strings.TrimSpace(payload.Note),
	)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// decrementCartLineHandler godoc
//
//	@Summary		Decrement cart line
//	@Description	Lowers a line's quantity by one, removing it at zero
//	@Tags			cart
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Param			line_key	path		string	true	"Line key"
//	@Success		200			{object}	session.View
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/cart/lines/{line_key} [delete]
func (app *application) decrementCartLineHandler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "line_key"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := getSessionFromCtx(r).Decrement(key)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// clearCartHandler godoc
//
//	@Summary		Clear cart
//	@Description	Empties the cart and drops the applied promotion and points
//	@Tags			cart
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	session.View
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	view, err := getSessionFromCtx(r).Clear()
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// reorderHandler godoc
//
//	@Summary		Reorder
//	@Description	Adds the lines of a past order to the cart at current prices
//	@Tags			cart
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Param			order_id	path		string	true	"Order ID"
//	@Success		200			{object}	session.ReorderResult
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/reorder/{order_id} [post]
func (app *application) reorderHandler(w http.ResponseWriter, r *http.Request) {
	s := getSessionFromCtx(r)

	detail, err := app.orderService.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	// orders of other customers are reported as missing
	if s.UserID == "" || detail.Order.UserID != s.UserID {
		app.notFoundError(w, r, errors.New("order does not belong to session user"))
		return
	}

	res, err := s.Reorder(r.Context(), detail.Lines)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, res); err != nil {
		app.internalServerError(w, r, err)
	}
}
