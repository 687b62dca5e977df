package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
)

// ErrorBody is the JSON shape of every error response. Kind, Path and
// Suggested are only set for calculator errors.
type ErrorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Path      string `json:"path,omitempty"`
	Formula   string `json:"formula,omitempty"`
	Suggested string `json:"suggested,omitempty"`
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a successful JSON response (200 OK).
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONError writes a JSON error response with the given status code and message.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// StatusFor maps a calculator error onto an HTTP status: bad input is the
// client's fault, a computation that cannot proceed on valid input is
// unprocessable, anything else is ours.
func StatusFor(err error) int {
	switch calcerr.KindOf(err) {
	case calcerr.KindUnitUnknown, calcerr.KindInvalidConfig, calcerr.KindOutOfRange:
		return http.StatusBadRequest
	case calcerr.KindNumericDegenerate, calcerr.KindModelFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteCalcError writes err with the status StatusFor picks. Unclassified
// errors are logged and reported without detail.
func WriteCalcError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	var ce *calcerr.Error
	if !errors.As(err, &ce) {
		log.Printf("internal error: %v", err)
		WriteJSONError(w, status, "internal error")
		return
	}
	WriteJSON(w, status, ErrorBody{
		Error:     ce.Error(),
		Kind:      ce.Kind.String(),
		Path:      ce.Path,
		Formula:   ce.Formula,
		Suggested: ce.Suggested,
	})
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusBadRequest, msg)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusNotFound, msg)
}
