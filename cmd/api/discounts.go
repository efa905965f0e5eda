package main

import (
	"net/http"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/session"
)

type ApplyPromotionPayload struct {
	Code string `json:"code" validate:"required,max=64"`
}

type ApplyPointsPayload struct {
	Points int64 `json:"points" validate:"gte=0"`
	UseMax bool  `json:"use_max"`
}

// applyPromotionHandler godoc
//
//	@Summary		Apply promotion
//	@Description	Applies a promo code. A rejected code leaves the current promotion in place
//	@Tags			discounts
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path		string					true	"Session ID"
//	@Param			payload		body		ApplyPromotionPayload	true	"Promo code"
//	@Success		200			{object}	session.View
//	@Failure		400			{object}	errorBody
//	@Failure		422			{object}	errorBody
//	@Router			/sessions/{session_id}/promotion [post]
func (app *application) applyPromotionHandler(w http.ResponseWriter, r *http.Request) {
	var payload ApplyPromotionPayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := getSessionFromCtx(r).ApplyPromotion(r.Context(), strings.TrimSpace(payload.Code))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removePromotionHandler godoc
//
//	@Summary		Remove promotion
//	@Tags			discounts
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	session.View
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/promotion [delete]
func (app *application) removePromotionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := getSessionFromCtx(r).RemovePromotion()
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// applyPointsHandler godoc
//
//	@Summary		Redeem points
//	@Description	Redeems loyalty points against the order. use_max redeems as many as the balance and payable amount allow
//	@Tags			discounts
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path		string				true	"Session ID"
//	@Param			payload		body		ApplyPointsPayload	true	"Points to redeem"
//	@Success		200			{object}	session.View
//	@Failure		400			{object}	errorBody
//	@Failure		422			{object}	errorBody
//	@Router			/sessions/{session_id}/points [post]
func (app *application) applyPointsHandler(w http.ResponseWriter, r *http.Request) {
	var payload ApplyPointsPayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s := getSessionFromCtx(r)

	var (
		view session.View
		err  error
	)
	if payload.UseMax {
		view, err = s.RedeemMax(r.Context())
	} else {
		if payload.Points <= 0 {
			app.errorResponse(w, r, &domain.PointsError{Reason: domain.PointsInvalidAmount})
			return
		}
		view, err = s.RedeemPoints(r.Context(), payload.Points)
	}
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removePointsHandler godoc
//
//	@Summary		Remove points
//	@Tags			discounts
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	session.View
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/points [delete]
func (app *application) removePointsHandler(w http.ResponseWriter, r *http.Request) {
	view, err := getSessionFromCtx(r).RemovePoints()
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPricingHandler godoc
//
//	@Summary		Pricing
//	@Description	Subtotal, promotion discount, points used, final total and estimated points earned
//	@Tags			discounts
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	checkout.Quote
//	@Failure		404			{object}	errorBody
//	@Router			/sessions/{session_id}/pricing [get]
func (app *application) getPricingHandler(w http.ResponseWriter, r *http.Request) {
	quote, err := getSessionFromCtx(r).Pricing()
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, quote); err != nil {
		app.internalServerError(w, r, err)
	}
}
