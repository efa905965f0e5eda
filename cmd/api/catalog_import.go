package main

import (
	"net/http"

	"github.com/go-chi/chi"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateImportTaskPayload struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
}

type CreateImportTaskResponse struct {
	TaskID string `json:"task_id"`
}

// createImportTaskHandler godoc
//
//	@Summary		Import catalog
//	@Description	Queues an import of the product catalog from a Google spreadsheet
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateImportTaskPayload	true	"Spreadsheet to import"
//	@Success		202		{object}	CreateImportTaskResponse
//	@Failure		400		{object}	errorBody
//	@Failure		503		{object}	errorBody
//	@Router			/catalog/import [post]
func (app *application) createImportTaskHandler(w http.ResponseWriter, r *http.Request) {
	if app.importService == nil {
		app.serviceUnavailableResponse(w, r, "catalog import is not configured")
		return
	}

	var payload CreateImportTaskPayload
	if err := readJson(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	taskID, err := app.importService.CreateImportTask(r.Context(), payload.SpreadsheetID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	response := CreateImportTaskResponse{
		TaskID: taskID.Hex(),
	}

	if err := app.jsonResponse(w, http.StatusAccepted, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getImportTaskHandler godoc
//
//	@Summary		Import status
//	@Description	Returns the state of a catalog import
//	@Tags			catalog
//	@Produce		json
//	@Param			task_id	path		string	true	"Task ID"
//	@Success		200		{object}	domain.ImportTask
//	@Failure		400		{object}	errorBody
//	@Failure		404		{object}	errorBody
//	@Router			/catalog/import/{task_id} [get]
func (app *application) getImportTaskHandler(w http.ResponseWriter, r *http.Request) {
	if app.importService == nil {
		app.serviceUnavailableResponse(w, r, "catalog import is not configured")
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "task_id"))
	if err != nil {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	task, err := app.importService.GetTask(r.Context(), taskID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, task); err != nil {
		app.internalServerError(w, r, err)
	}
}
