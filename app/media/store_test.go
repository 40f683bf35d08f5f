package media

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smallest valid PNG: signature plus IHDR.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, fh, err := req.FormFile("avatar")
	require.NoError(t, err)
	return fh
}

func TestSaveAvatar(t *testing.T) {
	store := NewStore(t.TempDir())

	t.Run("png is stored under avatars", func(t *testing.T) {
		rel, err := store.SaveAvatar(uploadHeader(t, "me.png", pngBytes))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(rel, "avatars/"))
		assert.True(t, strings.HasSuffix(rel, ".png"))

		data, err := os.ReadFile(filepath.Join(store.Root(), rel))
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
		assert.Equal(t, "/media/"+rel, URL(rel))

		require.NoError(t, store.Remove(rel))
		_, err = os.Stat(filepath.Join(store.Root(), rel))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("text is rejected", func(t *testing.T) {
		fh := uploadHeader(t, "me.png", []byte("definitely not an image"))
		assert.ErrorIs(t, store.CheckAvatar(fh), ErrNotImage)
		_, err := store.SaveAvatar(fh)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("oversized upload is rejected", func(t *testing.T) {
		content := append(append([]byte{}, pngBytes...), make([]byte, MaxAvatarSize)...)
		fh := uploadHeader(t, "big.png", content)
		assert.ErrorIs(t, store.CheckAvatar(fh), ErrTooLarge)
	})
}

func TestRemove(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.NoError(t, store.Remove(""))
	assert.NoError(t, store.Remove("avatars/missing.png"))
	assert.ErrorIs(t, store.Remove("../etc/passwd"), ErrInvalidPath)
	assert.Equal(t, "", URL(""))
}

func TestHandler(t *testing.T) {
	store := NewStore(t.TempDir())
	rel, err := store.SaveAvatar(uploadHeader(t, "me.png", pngBytes))
	require.NoError(t, err)
	handler := store.Handler()

	serve := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	t.Run("file", func(t *testing.T) {
		rec := serve(URL(rel))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, pngBytes, rec.Body.Bytes())
	})

	for _, target := range []string{"/media/", "/media/avatars/", "/media/avatars"} {
		t.Run("no listing for "+target, func(t *testing.T) {
			rec := serve(target)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.NotContains(t, rec.Body.String(), path.Base(rel))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve("/media/avatars/none.png").Code)
	})
}
