package web

// errors.go turns service errors into HTTP responses.
//
// The flow:
//  1. A handler gets an error from the service
//  2. It calls respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error's sentinel
//  4. core.MapError supplies the user-facing message and code
//  5. The technical error is logged with the request id; the client only
//     sees the mapped message, as JSON for /api routes and HTML otherwise

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ttparse/internal/core"
	"github.com/JonMunkholm/ttparse/internal/logging"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/service"
	"github.com/JonMunkholm/ttparse/internal/sheet"
	"github.com/JonMunkholm/ttparse/internal/store"
	"github.com/JonMunkholm/ttparse/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large or invalid form")
)

// statusFor maps an error to the HTTP status it should produce.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownProfile),
		errors.Is(err, lookup.ErrUnknownKind),
		errors.Is(err, store.ErrRunNotFound),
		errors.Is(err, store.ErrLookupNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyParses):
		return http.StatusServiceUnavailable
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidRunID),
		errors.Is(err, errNoFile),
		errors.Is(err, sheet.ErrNotWorkbook),
		errors.Is(err, sheet.ErrEmptyWorkbook),
		errors.Is(err, sheet.ErrSheetNotFound):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRejected),
		errors.Is(err, core.ErrMalformed),
		errors.Is(err, core.ErrBatchFormat),
		errors.Is(err, core.ErrFormat),
		errors.Is(err, core.ErrInvalidEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case strings.Contains(err.Error(), "decode lookup"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
