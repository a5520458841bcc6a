// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/anirelay/anirelay/internal/apperr"
	rlog "github.com/anirelay/anirelay/internal/log"
)

// errorBody is the JSON shape of every error response. Which of Details and
// Message is set depends on the route, matching what clients already parse.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes body with the resulting status.
func writeError(w http.ResponseWriter, r *http.Request, err error, body errorBody) {
	status := apperr.HTTPStatus(err)
	logger := rlog.WithComponentFromContext(r.Context(), "api")
	evt := logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).
		Str(rlog.FieldEvent, "request.failed").
		Str("kind", apperr.KindOf(err).String()).
		Str(rlog.FieldPath, r.URL.Path).
		Int(rlog.FieldStatus, status).
		Msg(body.Error)
	writeJSON(w, status, body)
}
