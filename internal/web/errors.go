package web

// errors.go writes the response envelope shared by every JSON route.
//
// The envelope is {Success, Status, Message, Data?}. Status always equals
// the HTTP status. Data carries the per-row accounting once a batch ran.
// Code and Detail are added to error envelopes so callers can quote a
// support code and see which columns or rules were rejected.
//
// The error flow:
//  1. Handler gets an error from the service
//  2. Calls respondError(w, r, err)
//  3. core.ClassifyError picks status, message and code
//  4. The technical error is logged with the request id
//  5. The envelope is written (or an HTML page for browser routes)

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/rowrelay/internal/core"
	"github.com/JonMunkholm/rowrelay/internal/logging"
	"github.com/JonMunkholm/rowrelay/internal/web/templates"
)

// envelope is the response body of the registration API.
type envelope struct {
	Success bool              `json:"Success"`
	Status  int               `json:"Status"`
	Message string            `json:"Message"`
	Data    *core.BatchResult `json:"Data,omitempty"`
	Code    string            `json:"Code,omitempty"`
	Detail  string            `json:"Detail,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, env envelope) {
	writeJSON(w, env.Status, env)
}

// respondError logs err and answers with its classified envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.ClassifyError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeEnvelope(w, envelope{
		Status:  msg.Status,
		Message: msg.Message,
		Code:    msg.Code,
		Detail:  msg.Detail,
	})
}

// respondErrorHTML renders the error page for browser routes.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(status, message, code).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsHTML(r) {
		respondErrorHTML(w, r, http.StatusNotFound, core.MsgNotFound, "")
		return
	}
	writeEnvelope(w, envelope{Status: http.StatusNotFound, Message: core.MsgNotFound})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, envelope{Status: http.StatusMethodNotAllowed, Message: core.MsgMethodNotAllowed})
}
