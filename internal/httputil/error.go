package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error kinds reported in the "type" field of an error body.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindSequence     = "sequence"
	KindState        = "state"
	KindConflict     = "conflict"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindUpstream     = "upstream"
)

type ErrorBody struct {
	Status string `json:"status"`
	Type   string `json:"type"`
	Error  string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// DecodeJSON reads a request body into v. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func Error(w http.ResponseWriter, status int, kind, msg string) {
	JSON(w, status, ErrorBody{Status: "error", Type: kind, Error: msg})
}

// InternalServerError passes the upstream message through, the desk staff
// read it when the database rejects something.
func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	if err != nil {
		msg = err.Error()
	}
	Error(w, http.StatusInternalServerError, KindUpstream, msg)
}

func BadRequest(w http.ResponseWriter, kind, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	Error(w, http.StatusBadRequest, kind, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	Error(w, http.StatusNotFound, KindNotFound, msg)
}

func Conflict(w http.ResponseWriter, msg string) {
	slog.Warn("conflict", "message", msg)
	Error(w, http.StatusConflict, KindConflict, msg)
}
