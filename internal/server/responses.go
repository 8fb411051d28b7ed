package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/lbx/internal/shared"
)

type successResponse struct {
	Data any           `json:"data"`
	Meta *responseMeta `json:"meta,omitempty"`
}

type errorResponse struct {
	Error errorBody     `json:"error"`
	Meta  *responseMeta `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type responseMeta struct {
	RequestID string `json:"request_id"`
}

func metaFor(r *http.Request) *responseMeta {
	if id := RequestIDFrom(r.Context()); id != "" {
		return &responseMeta{RequestID: id}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(successResponse{Data: data, Meta: metaFor(r)})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: code, Message: message},
		Meta:  metaFor(r),
	})
}

// statusFor maps catalog errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrAssetNotFound),
		errors.Is(err, shared.ErrBranchNotFound),
		errors.Is(err, shared.ErrStatusNotFound),
		errors.Is(err, shared.ErrCardNotFound),
		errors.Is(err, shared.ErrCheckoutNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, shared.ErrVariantMismatch):
		return http.StatusConflict, "variant_mismatch"
	case errors.Is(err, shared.ErrUnknownVariant):
		return http.StatusUnprocessableEntity, "unknown_variant"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
