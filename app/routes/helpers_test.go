package routes

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"blogsite/app/middleware"
	"blogsite/app/models"
	"blogsite/app/repositories"
	"blogsite/app/views"

	"github.com/gorilla/mux"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// Smallest valid PNG header, enough for content sniffing.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

type testApp struct {
	t         *testing.T
	store     *repositories.Store
	router    *mux.Router
	logs      *logtest.Hook
	mediaRoot string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store, err := repositories.Open("", repositories.StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, hook := logtest.NewNullLogger()
	mediaRoot := t.TempDir()
	router := SetupRoutes(store, views.MustLoad(), logger, Options{
		MediaRoot: mediaRoot,
		BaseURL:   "http://blog.test",
	})
	return &testApp{t: t, store: store, router: router, logs: hook, mediaRoot: mediaRoot}
}

type requestOption func(*http.Request)

func withSession(cookie *http.Cookie) requestOption {
	return func(r *http.Request) {
		if cookie != nil {
			r.AddCookie(cookie)
		}
	}
}

func acceptJSON(r *http.Request) {
	r.Header.Set("Accept", "application/json")
}

func (a *testApp) do(method, target string, body *strings.Reader, contentType string, opts ...requestOption) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, opts ...requestOption) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, target, nil, "", opts...)
}

func (a *testApp) postForm(target string, values url.Values, opts ...requestOption) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", opts...)
}

func (a *testApp) postJSON(target, payload string, opts ...requestOption) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, target, strings.NewReader(payload), "application/json", opts...)
}

func (a *testApp) postMultipart(target string, fields map[string]string, fileField, filename string, content []byte, opts ...requestOption) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(a.t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, writer.Close())
	return a.do(http.MethodPost, target, strings.NewReader(body.String()), writer.FormDataContentType(), opts...)
}

// register signs up username through the web form and returns the session
// cookie it was given.
func (a *testApp) register(username string) (*models.User, *http.Cookie) {
	a.t.Helper()
	rec := a.postForm("/register/", url.Values{
		"username":              {username},
		"email":                 {username + "@example.com"},
		"password":              {"correct horse"},
		"password_confirmation": {"correct horse"},
	})
	require.Equal(a.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	user, err := a.store.Users.GetByUsername(username)
	require.NoError(a.t, err)
	return user, sessionCookie(a.t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.SessionCookie)
	return nil
}

func (a *testApp) category(name string) *models.Category {
	a.t.Helper()
	category := &models.Category{Name: name}
	require.NoError(a.t, a.store.Categories.Create(category))
	return category
}

func (a *testApp) seedPost(author *models.User, category *models.Category, slug string, publish time.Time, status models.PostStatus) *models.Post {
	a.t.Helper()
	post := &models.Post{
		Title:      "Title of " + slug,
		Slug:       slug,
		AuthorID:   author.ID,
		CategoryID: category.ID,
		Body:       "Body of " + slug,
		Publish:    publish,
		Status:     status,
	}
	post.BeforeCreate()
	require.NoError(a.t, a.store.Posts.Create(post))
	return post
}

func (a *testApp) seedComment(post *models.Post, name string, active bool) *models.Comment {
	a.t.Helper()
	comment := models.NewComment(post.ID, name, "reader@example.com", "Comment by "+name)
	comment.Active = active
	comment.BeforeCreate()
	require.NoError(a.t, a.store.Comments.Create(comment))
	return comment
}
