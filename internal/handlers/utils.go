package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
)

// ErrorResponse es el cuerpo de toda respuesta de error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

func WriteJSON(w http.ResponseWriter, data interface{}) error {
	return WriteJSONWithStatus(w, http.StatusOK, data)
}

func WriteJSONWithStatus(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError traduce cualquier error a JSON. Los AppError conservan su código;
// el resto sale como 500 sin exponer el detalle interno.
func WriteError(w http.ResponseWriter, err error) error {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = apperrors.ErrInternalServer("", err)
	}
	return WriteJSONWithStatus(w, appErr.StatusCode, ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
		Code:    appErr.Code,
	})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrBadRequest(name+" must be an integer", err)
	}
	return v, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.ErrBadRequest(name+" must be a number", err)
	}
	return v, nil
}
