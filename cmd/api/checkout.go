package main

import (
	"net/http"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/checkout"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/notify"
)

// CheckoutPayload is validated field by field in the checkout flow so that
// missing details come back with their validation code.
type CheckoutPayload struct {
	Name     string                 `json:"name" validate:"max=100"`
	Phone    string                 `json:"phone" validate:"max=32"`
	Type     domain.FulfillmentType `json:"type"`
	Address  string                 `json:"address" validate:"max=500"`
	MapsLink string                 `json:"maps_link" validate:"omitempty,url"`
	Notes    string                 `json:"notes" validate:"max=500"`
}

type CheckoutResponse struct {
	*checkout.Receipt
	WhatsAppLink string `json:"whatsapp_link"`
}

// checkoutHandler godoc
//
//	@Summary		Checkout
//	@Description	Places the order for the session's cart and clears it
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path		string			true	"Session ID"
//	@Param			payload		body		CheckoutPayload	true	"Customer and fulfillment details"
//	@Success		201			{object}	CheckoutResponse
//	@Failure		400			{object}	errorBody
//	@Failure		409			{object}	errorBody
//	@Failure		422			{object}	errorBody
//	@Failure		500			{object}	errorBody
//	@Router			/sessions/{session_id}/checkout [post]
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload CheckoutPayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s := getSessionFromCtx(r)

	customer := domain.Customer{
		UserID: s.UserID,
		Name:   strings.TrimSpace(payload.Name),
		Phone:  strings.TrimSpace(payload.Phone),
	}
	fulfillment := domain.Fulfillment{
		Type:     payload.Type,
		Address:  strings.TrimSpace(payload.Address),
		MapsLink: strings.TrimSpace(payload.MapsLink),
		Notes:    strings.TrimSpace(payload.Notes),
	}

	receipt, err := s.Checkout(r.Context(), customer, fulfillment)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := CheckoutResponse{
		Receipt:      receipt,
		WhatsAppLink: notify.WhatsAppLink(app.config.shopPhone, receipt.Notification),
	}

	if err := app.jsonResponse(w, http.StatusCreated, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
