package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/go-chi/chi"
)

const reconciliationPageSize = 50

type UpdateOrderStatusPayload struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=pending assigned completed cancelled"`
	Reason string             `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusResponse struct {
	Message string `json:"message"`
}

// getOrderHandler godoc
//
//	@Summary		Get order
//	@Description	Returns an order with its lines and status history
//	@Tags			orders
//	@Produce		json
//	@Param			order_id	path		string	true	"Order ID"
//	@Success		200			{object}	service.OrderDetail
//	@Failure		404			{object}	errorBody
//	@Router			/orders/{order_id} [get]
func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := app.orderService.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, detail); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateOrderStatusHandler godoc
//
//	@Summary		Update order status
//	@Description	Queues a status change. Cancelling refunds redeemed points and reverses earned ones
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			order_id	path		string						true	"Order ID"
//	@Param			payload		body		UpdateOrderStatusPayload	true	"New status"
//	@Success		202			{object}	UpdateOrderStatusResponse
//	@Failure		400			{object}	errorBody
//	@Failure		404			{object}	errorBody
//	@Router			/orders/{order_id}/status [patch]
func (app *application) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateOrderStatusPayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	orderID := chi.URLParam(r, "order_id")
	userID := strings.TrimSpace(r.Header.Get(userHeader))

	if err := app.orderService.RequestStatusChange(r.Context(), orderID, payload.Status, payload.Reason, userID); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := UpdateOrderStatusResponse{
		Message: "status update queued",
	}

	if err := app.jsonResponse(w, http.StatusAccepted, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReconciliationHandler godoc
//
//	@Summary		Orders needing reconciliation
//	@Description	Orders whose lines or ledger entries may not have been written
//	@Tags			orders
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum orders returned"
//	@Success		200		{array}		domain.Order
//	@Failure		400		{object}	errorBody
//	@Router			/orders/reconciliation [get]
func (app *application) listReconciliationHandler(w http.ResponseWriter, r *http.Request) {
	limit := reconciliationPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			app.badRequestResponse(w, r, domain.NewValidationError(domain.ValidationInvalidInput, "limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	orders, err := app.orderService.ListNeedingReconciliation(r.Context(), limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listUserOrdersHandler godoc
//
//	@Summary		User orders
//	@Description	Order history of a user, newest first
//	@Tags			orders
//	@Produce		json
//	@Param			user_id	path		string	true	"User ID"
//	@Param			status	query		string	false	"Only orders in this status"
//	@Success		200		{array}		domain.Order
//	@Failure		400		{object}	errorBody
//	@Router			/users/{user_id}/orders [get]
func (app *application) listUserOrdersHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	orders, err := app.orderService.ListUserOrders(r.Context(), userID, status)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}
