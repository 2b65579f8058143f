// internal/app/features/errors/errlog.go
package errors

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/bsankara/koasa/internal/app/system/auth"
)

// ErrorLogger couples structured error logging with user-facing error pages.
// Handlers call one method instead of logging and rendering separately, so
// server-side detail stays in the logs and users see a clean French message.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger around the given zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs an internal error and renders a 500 error page.
// logMsg and err go to the log; userMsg is shown to the user.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))

	e.renderErrorPage(w, r, http.StatusInternalServerError, "Erreur du serveur", userMsg, backURL)
}

// LogBadRequest logs a client error and renders a 400 error page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))

	e.renderErrorPage(w, r, http.StatusBadRequest, "Requête invalide", userMsg, backURL)
}

// HTMXLogServerError logs an internal error and responds with a small HTML
// fragment suitable for an htmx swap target, not a full page.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<div class="alert alert-danger" role="alert">%s</div>`,
		template.HTMLEscapeString(userMsg))
}

func (e *ErrorLogger) renderErrorPage(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = "/"
	}

	data := pageData{
		Title:      title,
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    userMsg,
		BackURL:    backURL,
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_message", data)
}
