package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogsite/app/models"
	"blogsite/app/repositories"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "GET", entry.Data["method"])
	assert.Equal(t, "/test", entry.Data["path"])
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Contains(t, entry.Data, "duration")
}

func TestRecoverer(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rw := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rw, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.Contains(t, rw.Body.String(), "Internal Server Error")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "test panic", entry.Data["panic"])
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{name: "API route", path: "/api/blog/", contentType: "application/json"},
		{name: "non-API route", path: "/blog/", contentType: ""},
		{name: "short path", path: "/", contentType: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", tt.path, nil)
			rw := httptest.NewRecorder()
			handler.ServeHTTP(rw, req)
			assert.Equal(t, tt.contentType, rw.Header().Get("Content-Type"))
		})
	}
}

type fakeSessions map[string]*models.User

func (f fakeSessions) UserForSession(token string) (*models.User, error) {
	if token == "broken" {
		return nil, errors.New("db down")
	}
	user, ok := f[token]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func TestAuthenticate(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	alice := &models.User{ID: 1, Username: "alice"}
	auth := Authenticate(fakeSessions{"good": alice}, logger)

	var seen *models.User
	handler := auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r)
	}))

	tests := []struct {
		name     string
		cookie   string
		want     *models.User
		warnings int
	}{
		{name: "no cookie"},
		{name: "live session", cookie: "good", want: alice},
		{name: "expired session", cookie: "stale"},
		{name: "lookup failure", cookie: "broken", warnings: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			seen = nil
			req := httptest.NewRequest("GET", "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
			assert.Len(t, hook.AllEntries(), tt.warnings)
		})
	}
}

func TestRequireLogin(t *testing.T) {
	handler := RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("anonymous html", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/create/?x=1", nil)
		rw := httptest.NewRecorder()
		handler(rw, req)
		assert.Equal(t, http.StatusFound, rw.Code)
		assert.Equal(t, "/login/?next=%2Fblog%2Fcreate%2F%3Fx%3D1", rw.Header().Get("Location"))
	})

	t.Run("anonymous json", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/create/", nil)
		req.Header.Set("Accept", "application/json")
		rw := httptest.NewRecorder()
		handler(rw, req)
		assert.Equal(t, http.StatusUnauthorized, rw.Code)
	})

	t.Run("logged in", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/create/", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 3}))
		rw := httptest.NewRecorder()
		handler(rw, req)
		assert.Equal(t, http.StatusNoContent, rw.Code)
	})
}
