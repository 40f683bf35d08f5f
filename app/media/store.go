// Package media stores user uploads below the media root and serves their
// public URLs.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 5 << 20

// URLPrefix is where the media root is mounted.
const URLPrefix = "/media/"

var (
	ErrNotImage    = errors.New("upload is not an image")
	ErrTooLarge    = errors.New("upload is too large")
	ErrInvalidPath = errors.New("invalid media path")
)

// Store writes files under root.
type Store struct {
	root string
}

// NewStore returns a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root is the directory files are written to.
func (s *Store) Root() string {
	return s.root
}

// Handler serves stored files below URLPrefix. Directories are reported as
// missing so their contents are never listed.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(filesOnly{http.Dir(s.root)}))
}

type filesOnly struct {
	http.FileSystem
}

func (fs filesOnly) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// CheckAvatar verifies fh is an image no larger than MaxAvatarSize without
// storing anything.
func (s *Store) CheckAvatar(fh *multipart.FileHeader) error {
	_, err := detectImage(fh)
	return err
}

// SaveAvatar stores fh as avatars/<uuid><ext> and returns that relative path.
func (s *Store) SaveAvatar(fh *multipart.FileHeader) (string, error) {
	mtype, err := detectImage(fh)
	if err != nil {
		return "", err
	}

	rel := path.Join("avatars", uuid.NewString()+mtype.Extension())
	dst := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create avatar directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", rel, err)
	}
	if _, err := io.Copy(out, io.LimitReader(src, MaxAvatarSize)); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", rel, err)
	}
	return rel, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	return nil
}

// URL returns the public URL of a stored file, or "" for an empty path.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return URLPrefix + rel
}

func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func detectImage(fh *multipart.FileHeader) (*mimetype.MIME, error) {
	if fh.Size > MaxAvatarSize {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrNotImage
	}
	return mtype, nil
}
