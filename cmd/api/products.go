package main

import (
	"net/http"
	"strconv"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/go-chi/chi"
)

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Lists the catalog sorted by category and name
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"Only this category"
//	@Param			available	query		bool	false	"Only available products"
//	@Param			bundles		query		bool	false	"Only bundles"
//	@Success		200			{array}		domain.Product
//	@Failure		400			{object}	errorBody
//	@Failure		500			{object}	errorBody
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ProductFilter{Category: q.Get("category")}

	var err error
	if v := q.Get("available"); v != "" {
		if filter.AvailableOnly, err = strconv.ParseBool(v); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}
	if v := q.Get("bundles"); v != "" {
		if filter.BundlesOnly, err = strconv.ParseBool(v); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	products, err := app.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary		Get product
//	@Description	Returns a product; bundles include their children and savings
//	@Tags			products
//	@Produce		json
//	@Param			product_id	path		int	true	"Product ID"
//	@Success		200			{object}	service.ProductDetail
//	@Failure		400			{object}	errorBody
//	@Failure		404			{object}	errorBody
//	@Router			/products/{product_id} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	detail, err := app.catalogService.GetProductDetail(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, detail); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
