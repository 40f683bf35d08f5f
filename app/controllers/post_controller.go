package controllers

import (
	"html/template"
	"net/http"
	"strconv"

	"blogsite/app/forms"
	"blogsite/app/middleware"
	"blogsite/app/models"
	"blogsite/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	*responder
	postService    *services.PostService
	commentService *services.CommentService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, commentService *services.CommentService,
	templates map[string]*template.Template, log logrus.FieldLogger) *PostController {
	return &PostController{
		responder:      newResponder(templates, log),
		postService:    postService,
		commentService: commentService,
	}
}

// Home renders the welcome page
func (pc *PostController) Home(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]string{"blog": "/blog/"})
		return
	}
	pc.render(w, r, "home", http.StatusOK, nil)
}

// Index handles listing published posts, three per page
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	number, err := services.ParsePage(r.URL.Query().Get("page"))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	page, err := pc.postService.ListPublished(number)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, page)
		return
	}
	pc.render(w, r, "posts/list", http.StatusOK, data{"Page": page})
}

// Mine lists every post of the logged in user, drafts included.
func (pc *PostController) Mine(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListByAuthor(middleware.CurrentUser(r))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
		return
	}
	pc.render(w, r, "posts/mine", http.StatusOK, data{"Posts": posts})
}

// Show handles displaying a single published post. POST submits a comment.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.publishedPost(r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	form := &forms.CommentForm{}
	if r.Method == http.MethodPost {
		pc.submitComment(w, r, post, form)
		return
	}

	comments, err := pc.commentService.PostComments(middleware.CurrentUser(r), post)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"post":     post,
			"comments": comments,
		})
		return
	}

	d := data{"Post": post, "Comments": comments, "Form": form}
	if r.URL.Query().Get("comment") == "added" {
		d["Notice"] = services.CommentAdded
	}
	pc.render(w, r, "posts/detail", http.StatusOK, d)
}

func (pc *PostController) submitComment(w http.ResponseWriter, r *http.Request, post *models.Post, form *forms.CommentForm) {
	if err := forms.Bind(r, form); err != nil {
		pc.sendError(w, r, err)
		return
	}

	comment, err := pc.commentService.SubmitComment(post, form)
	if err != nil {
		fieldErrs, ok := formErrors(err)
		if !ok || middleware.WantsJSON(r) {
			pc.sendError(w, r, err)
			return
		}
		comments, listErr := pc.commentService.PostComments(middleware.CurrentUser(r), post)
		if listErr != nil {
			pc.sendError(w, r, listErr)
			return
		}
		pc.render(w, r, "posts/detail", http.StatusBadRequest, data{
			"Post": post, "Comments": comments, "Form": form, "Errors": fieldErrs,
		})
		return
	}

	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusCreated, map[string]interface{}{
			"comment": comment,
			"notice":  services.CommentAdded,
		})
		return
	}
	redirect(w, r, post.URL()+"?comment=added")
}

// New handles the post creation form
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	form := &forms.PostForm{Status: string(models.StatusDraft)}

	if r.Method == http.MethodPost {
		if err := forms.Bind(r, form); err != nil {
			pc.sendError(w, r, err)
			return
		}
		post, err := pc.postService.CreatePost(user, form)
		if err != nil {
			pc.formFailed(w, r, err, nil, form)
			return
		}
		if middleware.WantsJSON(r) {
			pc.sendJSON(w, http.StatusCreated, post)
			return
		}
		redirect(w, r, afterSave(post))
		return
	}

	pc.renderForm(w, r, http.StatusOK, nil, form, nil)
}

// Edit handles the post edit form. Only the author may use it.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	user := middleware.CurrentUser(r)
	post, err := pc.postService.GetOwnedPost(user, id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		form := &forms.PostForm{}
		if err := forms.Bind(r, form); err != nil {
			pc.sendError(w, r, err)
			return
		}
		updated, err := pc.postService.UpdatePost(user, id, form)
		if err != nil {
			pc.formFailed(w, r, err, post, form)
			return
		}
		if middleware.WantsJSON(r) {
			pc.sendJSON(w, http.StatusOK, updated)
			return
		}
		redirect(w, r, afterSave(updated))
		return
	}

	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	pc.renderForm(w, r, http.StatusOK, post, forms.PostFormFrom(post), nil)
}

// Delete asks for confirmation on GET and deletes on POST. Only the author
// may use it.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	user := middleware.CurrentUser(r)
	post, err := pc.postService.GetOwnedPost(user, id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if r.Method == http.MethodPost || r.Method == http.MethodDelete {
		if err := pc.postService.DeletePost(user, id); err != nil {
			pc.sendError(w, r, err)
			return
		}
		if middleware.WantsJSON(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		redirect(w, r, "/blog/")
		return
	}

	if middleware.WantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"post": post, "confirm": "POST to delete"})
		return
	}
	pc.render(w, r, "posts/confirm_delete", http.StatusOK, data{"Post": post})
}

func (pc *PostController) formFailed(w http.ResponseWriter, r *http.Request, err error, post *models.Post, form *forms.PostForm) {
	fieldErrs, ok := formErrors(err)
	if !ok || middleware.WantsJSON(r) {
		pc.sendError(w, r, err)
		return
	}
	pc.renderForm(w, r, http.StatusBadRequest, post, form, fieldErrs)
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, post *models.Post, form *forms.PostForm, fieldErrs map[string]string) {
	categories, err := pc.postService.Categories()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	d := data{"Form": form, "Categories": categories}
	if post != nil {
		d["Post"] = post
	}
	if fieldErrs != nil {
		d["Errors"] = fieldErrs
	}
	pc.render(w, r, "posts/form", status, d)
}

func (pc *PostController) publishedPost(r *http.Request) (*models.Post, error) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	day, _ := strconv.Atoi(vars["day"])
	return pc.postService.GetPublishedByDateSlug(year, month, day, vars["slug"])
}

// afterSave is where the browser goes once a post is stored. Drafts have no
// public page, so they go back to the list.
func afterSave(post *models.Post) string {
	if post.IsPublished() {
		return post.URL()
	}
	return "/blog/"
}
