package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/camden-git/mediapicker/catalog"
)

// Error codes used in APIErrorDetail.Code.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidFilter    = "invalid_filter"
	CodeUnknownAuthority = "unknown_authority"
	CodeNotFound         = "not_found"
	CodeQueueFull        = "queue_full"
	CodeTimeout          = "timeout"
	CodeShuttingDown     = "shutting_down"
	CodeStorage          = "storage_error"
	CodeInternal         = "internal_error"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeCatalogError maps catalog sentinel errors onto API errors.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidFilter):
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidFilter, err.Error())
	case errors.Is(err, catalog.ErrUnknownAuthority):
		WriteAPIError(w, http.StatusBadRequest, CodeUnknownAuthority, err.Error())
	case errors.Is(err, catalog.ErrStorage):
		WriteAPIError(w, http.StatusInternalServerError, CodeStorage, "the media catalog could not be read or updated")
	default:
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
