package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"blogsite/app/forms"
	"blogsite/app/middleware"
	"blogsite/app/repositories"
	"blogsite/app/services"
	"blogsite/app/validation"

	"github.com/sirupsen/logrus"
)

// data is the template context of a page.
type data map[string]interface{}

// responder renders templates or JSON depending on what the client asked for.
type responder struct {
	templates map[string]*template.Template
	log       logrus.FieldLogger
}

func newResponder(templates map[string]*template.Template, log logrus.FieldLogger) *responder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &responder{templates: templates, log: log}
}

// render executes page inside the layout. The current user and an empty
// error map are always available to the template.
func (rs *responder) render(w http.ResponseWriter, r *http.Request, page string, status int, d data) {
	t, ok := rs.templates[page]
	if !ok {
		rs.log.WithField("template", page).Error("template not found")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if d == nil {
		d = data{}
	}
	d["User"] = middleware.CurrentUser(r)
	if _, ok := d["Errors"]; !ok {
		d["Errors"] = map[string]string{}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", d); err != nil {
		rs.log.WithError(err).WithField("template", page).Error("template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rs *responder) sendJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rs.log.WithError(err).Warn("could not encode response")
	}
}

// sendError maps err onto a status code and writes it in the format the
// client asked for.
func (rs *responder) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal Server Error"
	if verr, ok := validation.As(err); ok {
		if middleware.WantsJSON(r) {
			rs.sendJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": verr.Fields})
			return
		}
		status, message = http.StatusBadRequest, verr.Error()
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		status, message = http.StatusNotFound, "Not Found"
	case errors.Is(err, services.ErrPermissionDenied):
		status, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, forms.ErrMalformed):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, forms.ErrTooLarge):
		status, message = http.StatusRequestEntityTooLarge, err.Error()
	}
	if status == http.StatusInternalServerError {
		rs.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}

	if middleware.WantsJSON(r) {
		rs.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// formErrors splits err into field errors for re-rendering a form. ok is
// false when err is not a validation failure.
func formErrors(err error) (map[string]string, bool) {
	verr, ok := validation.As(err)
	if !ok {
		return nil, false
	}
	return verr.Fields, true
}

// redirect answers HTML clients with a 303 to target.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext keeps only local redirect targets.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}
