package controllers

import (
	"html/template"
	"net/http"
	"strconv"

	"blogsite/app/middleware"
	"blogsite/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// CommentController handles comment moderation
type CommentController struct {
	*responder
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, templates map[string]*template.Template, log logrus.FieldLogger) *CommentController {
	return &CommentController{
		responder:      newResponder(templates, log),
		commentService: commentService,
	}
}

// Toggle hides a visible comment or shows a hidden one. Only the author of
// the post may do it.
func (cc *CommentController) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	comment, err := cc.commentService.ToggleComment(middleware.CurrentUser(r), id)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		cc.sendJSON(w, http.StatusOK, comment)
		return
	}
	redirect(w, r, afterSave(comment.Post))
}

// Delete removes a comment. Only the author of the post may do it.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	comment, err := cc.commentService.DeleteComment(middleware.CurrentUser(r), id)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, afterSave(comment.Post))
}
