/*
Package resp provides helper functions for constructing and sending standardized HTTP JSON responses.

Every answer uses the same envelope: a business code (0 on success), a message
and an optional data payload.
*/
package resp

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshelf/internal/pkg/errs"
	"bookshelf/internal/pkg/logx"
	"bookshelf/internal/pkg/validx"
)

// JSONResponse is the envelope returned by every endpoint.
type JSONResponse struct {
	// Code is the business status code (0 for success, see errs package otherwise).
	Code int `json:"code"`

	// Message is the client-friendly status description or error message.
	Message string `json:"message"`

	// Data is the optional payload. On validation failures it maps field names to messages.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the content headers and writes payload with httpStatus.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Ctx(r.Context()).Error().Err(err).
			Int("http_status", httpStatus).
			Msg("Error encoding JSON response")

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	_, _ = w.Write(response)
}

// RespondSuccess sends data with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	respond(w, r, http.StatusOK, data)
}

// RespondCreated sends data with HTTP 201.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	respond(w, r, http.StatusCreated, data)
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	RespondJSON(w, r, status, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError sends the code, message and status of err. Any error that is
// not already a *errs.CustomError is reported as unknown.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	customErr := errs.From(err)
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	}

	var fields validx.FieldErrors
	if errors.As(customErr, &fields) {
		res.Data = fields
	}

	RespondJSON(w, r, customErr.Status, res)
}
