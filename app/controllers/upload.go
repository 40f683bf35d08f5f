package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
)

// uploadedFile returns the file sent in field, or nil when the request has
// none. The form must already be parsed.
func uploadedFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Close()
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	return fh, nil
}
