package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// writeJSON encodes a response body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Bytes())))
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// errorFields writes the {"code","message"} fields of an error body into an
// already opened object.
func errorFields(e *jx.Encoder, status int, message string) {
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		errorFields(e, status, message)
		e.ObjEnd()
	})
}

// writeInternalError logs err with the request-scoped logger and responds
// with a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
