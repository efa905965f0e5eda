package main

import (
	"net/http"

	"github.com/go-chi/chi"
)

// getPointsHistoryHandler godoc
//
//	@Summary		Points history
//	@Description	Balance, lifetime totals and ledger entries of a user
//	@Tags			points
//	@Produce		json
//	@Param			user_id	path		string	true	"User ID"
//	@Success		200		{object}	service.PointsHistory
//	@Failure		500		{object}	errorBody
//	@Router			/users/{user_id}/points [get]
func (app *application) getPointsHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := app.loyaltyService.History(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, history); err != nil {
		app.internalServerError(w, r, err)
	}
}
