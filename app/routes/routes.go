// Package routes wires repositories, services and controllers into the
// application router.
package routes

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"blogsite/app/controllers"
	"blogsite/app/media"
	"blogsite/app/middleware"
	"blogsite/app/repositories"
	"blogsite/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Options carries the settings the handlers need.
type Options struct {
	MediaRoot     string
	BaseURL       string
	SessionTTL    time.Duration
	SecureCookies bool
}

const (
	postDatePattern = "/{year:[0-9]{4}}/{month:[0-9]{1,2}}/{day:[0-9]{1,2}}/{slug:[-a-zA-Z0-9_]+}/"
	idPattern       = "{id:[0-9]+}"
)

// SetupRoutes builds the services on store and returns the router serving
// the HTML site and its JSON mirror under /api.
func SetupRoutes(store *repositories.Store, templates map[string]*template.Template, log *logrus.Logger, opts Options) *mux.Router {
	mediaStore := media.NewStore(opts.MediaRoot)

	postService := services.NewPostService(store.Posts, store.Categories, store.Users)
	commentService := services.NewCommentService(store.Comments, store.Posts)
	accountService := services.NewAccountService(services.AccountDeps{
		Users:       store.Users,
		Profiles:    store.Profiles,
		Sessions:    store.Sessions,
		ResetTokens: store.ResetTokens,
		Avatars:     mediaStore,
		Logger:      log,
		BaseURL:     opts.BaseURL,
	})

	postController := controllers.NewPostController(postService, commentService, templates, log)
	commentController := controllers.NewCommentController(commentService, templates, log)
	accountController := controllers.NewAccountController(accountService, templates, log, controllers.AccountOptions{
		SessionTTL:    opts.SessionTTL,
		SecureCookies: opts.SecureCookies,
	})

	router := mux.NewRouter().StrictSlash(true)

	// Apply global middleware
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Authenticate(accountService, log))

	router.NotFoundHandler = http.HandlerFunc(notFound)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	registerBlog(api.PathPrefix("/blog").Subrouter(), postController, commentController)

	// Uploaded files
	router.PathPrefix(media.URLPrefix).Handler(mediaStore.Handler())

	// Web routes
	router.HandleFunc("/", postController.Home).Methods("GET")
	registerBlog(router.PathPrefix("/blog").Subrouter(), postController, commentController)

	router.HandleFunc("/register/", accountController.Register).Methods("GET", "POST")
	router.HandleFunc("/login/", accountController.Login).Methods("GET", "POST")
	router.HandleFunc("/logout/", accountController.Logout).Methods("GET", "POST")
	router.HandleFunc("/password_reset/", accountController.PasswordReset).Methods("GET", "POST")
	router.HandleFunc("/password_reset/done/", accountController.PasswordResetDone).Methods("GET")
	router.HandleFunc("/reset/done/", accountController.PasswordResetComplete).Methods("GET")
	router.HandleFunc("/reset/{token}/", accountController.PasswordResetConfirm).Methods("GET", "POST")
	router.HandleFunc("/profile/", middleware.RequireLogin(accountController.Profile)).Methods("GET", "POST")

	return router
}

func registerBlog(blog *mux.Router, pc *controllers.PostController, cc *controllers.CommentController) {
	blog.HandleFunc("/", pc.Index).Methods("GET")
	blog.HandleFunc("/create/", middleware.RequireLogin(pc.New)).Methods("GET", "POST")
	blog.HandleFunc("/mine/", middleware.RequireLogin(pc.Mine)).Methods("GET")
	blog.HandleFunc("/"+idPattern+"/edit/", middleware.RequireLogin(pc.Edit)).Methods("GET", "POST")
	blog.HandleFunc("/"+idPattern+"/delete/", middleware.RequireLogin(pc.Delete)).Methods("GET", "POST", "DELETE")
	blog.HandleFunc("/comments/"+idPattern+"/toggle/", middleware.RequireLogin(cc.Toggle)).Methods("POST")
	blog.HandleFunc("/comments/"+idPattern+"/delete/", middleware.RequireLogin(cc.Delete)).Methods("POST", "DELETE")
	blog.HandleFunc(postDatePattern, pc.Show).Methods("GET", "POST")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || middleware.WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
		return
	}
	http.NotFound(w, r)
}

// StartServer serves router on addr until ctx is cancelled, then shuts the
// server down gracefully.
func StartServer(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
