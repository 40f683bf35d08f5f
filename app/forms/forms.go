// Package forms binds request input (urlencoded, multipart or JSON) to typed
// forms and validates it.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogsite/app/models"
	"blogsite/app/validation"
)

// MaxUploadSize bounds every request body Bind reads, whatever its encoding.
// It leaves room for a MaxAvatarSize image plus the other profile fields.
const MaxUploadSize = 6 << 20

var (
	// ErrMalformed is returned when the request body cannot be decoded.
	ErrMalformed = errors.New("malformed request body")
	// ErrTooLarge is returned when the request body exceeds MaxUploadSize.
	ErrTooLarge = errors.New("request body too large")
)

// Form is implemented by every form in this package.
type Form interface {
	fromValues(values url.Values)
	Validate() error
}

// Bind fills form from r. JSON bodies are decoded directly; everything else
// is parsed as a (possibly multipart) form.
func Bind(r *http.Request, form Form) error {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadSize)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(form); err != nil {
			return bindError(err)
		}
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return bindError(err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return bindError(err)
		}
	}
	form.fromValues(r.PostForm)
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

func value(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

// CommentForm is the public comment form shown under a post.
type CommentForm struct {
	Name  string `json:"name" validate:"required,max=80"`
	Email string `json:"email" validate:"required,email"`
	Body  string `json:"body" validate:"required"`
}

func (f *CommentForm) fromValues(values url.Values) {
	f.Name = value(values, "name")
	f.Email = value(values, "email")
	f.Body = value(values, "body")
}

// Validate checks every field.
func (f *CommentForm) Validate() error {
	return validation.Struct(f)
}

// Comment builds an unsaved active comment for postID.
func (f *CommentForm) Comment(postID int) *models.Comment {
	return models.NewComment(postID, f.Name, f.Email, f.Body)
}

// PublishLayout is the datetime-local input format accepted for publish.
const PublishLayout = "2006-01-02T15:04"

// PostForm creates and edits posts. Publish is optional; when empty a new
// post is published at its creation time and an edited post keeps its date.
type PostForm struct {
	Title      string `json:"title" validate:"required,max=200"`
	Slug       string `json:"slug" validate:"required,max=200,slug"`
	CategoryID int    `json:"category_id" validate:"gt=0"`
	Body       string `json:"body" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=draft published"`
	Publish    string `json:"publish"`
}

// PostFormFrom prefills a form with post's current values.
func PostFormFrom(post *models.Post) *PostForm {
	return &PostForm{
		Title:      post.Title,
		Slug:       post.Slug,
		CategoryID: post.CategoryID,
		Body:       post.Body,
		Status:     string(post.Status),
		Publish:    post.Publish.UTC().Format(PublishLayout),
	}
}

func (f *PostForm) fromValues(values url.Values) {
	f.Title = value(values, "title")
	f.Slug = value(values, "slug")
	f.CategoryID, _ = strconv.Atoi(value(values, "category_id"))
	f.Body = value(values, "body")
	f.Status = value(values, "status")
	f.Publish = value(values, "publish")
}

// Validate checks every field, including the publish timestamp format.
func (f *PostForm) Validate() error {
	verr := &validation.ValidationError{}
	if err := validation.Struct(f); err != nil {
		fieldErrs, ok := validation.As(err)
		if !ok {
			return err
		}
		verr.Merge(fieldErrs)
	}
	if _, err := f.PublishTime(); err != nil {
		verr.Add("publish", "Enter a valid date/time.")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// PublishTime parses Publish as UTC. An empty value yields the zero time.
func (f *PostForm) PublishTime() (time.Time, error) {
	if f.Publish == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, f.Publish); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(PublishLayout, f.Publish, time.UTC)
}

// Apply copies the form onto post. The form must have validated.
func (f *PostForm) Apply(post *models.Post) {
	post.Title = f.Title
	post.Slug = f.Slug
	post.CategoryID = f.CategoryID
	post.Body = f.Body
	post.Status = models.PostStatus(f.Status)
	if publish, err := f.PublishTime(); err == nil && !publish.IsZero() {
		post.Publish = publish
	}
}

// RegistrationForm signs up a new user.
type RegistrationForm struct {
	Username             string `json:"username" validate:"required,max=150,username"`
	Email                string `json:"email" validate:"required,max=254,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (f *RegistrationForm) fromValues(values url.Values) {
	f.Username = value(values, "username")
	f.Email = value(values, "email")
	f.Password = values.Get("password")
	f.PasswordConfirmation = values.Get("password_confirmation")
}

// Validate checks every field.
func (f *RegistrationForm) Validate() error {
	return validation.Struct(f)
}

// LoginForm authenticates an existing user. Next is where to go afterwards.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

func (f *LoginForm) fromValues(values url.Values) {
	f.Username = value(values, "username")
	f.Password = values.Get("password")
	f.Next = value(values, "next")
}

// Validate checks every field.
func (f *LoginForm) Validate() error {
	return validation.Struct(f)
}

// UserForm edits the account half of the profile page.
type UserForm struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

func (f *UserForm) fromValues(values url.Values) {
	f.Username = value(values, "username")
	f.Email = value(values, "email")
}

// Validate checks every field.
func (f *UserForm) Validate() error {
	return validation.Struct(f)
}

// ProfileForm edits the profile half of the profile page. The avatar file
// itself travels as a multipart part and is handled by the media store.
type ProfileForm struct {
	Bio         string `json:"bio" validate:"max=500"`
	Website     string `json:"website" validate:"omitempty,url"`
	ClearAvatar bool   `json:"clear_avatar"`
}

func (f *ProfileForm) fromValues(values url.Values) {
	f.Bio = value(values, "bio")
	f.Website = value(values, "website")
	f.ClearAvatar = values.Get("clear_avatar") != ""
}

// Validate checks every field.
func (f *ProfileForm) Validate() error {
	return validation.Struct(f)
}

// AccountForm is the combined profile page: user fields and profile fields
// bound from one request.
type AccountForm struct {
	UserForm
	ProfileForm
}

func (f *AccountForm) fromValues(values url.Values) {
	f.UserForm.fromValues(values)
	f.ProfileForm.fromValues(values)
}

// Validate validates both halves independently and reports every error.
func (f *AccountForm) Validate() error {
	verr := &validation.ValidationError{}
	for _, err := range []error{f.UserForm.Validate(), f.ProfileForm.Validate()} {
		if err == nil {
			continue
		}
		fieldErrs, ok := validation.As(err)
		if !ok {
			return err
		}
		verr.Merge(fieldErrs)
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// PasswordResetForm requests a reset link.
type PasswordResetForm struct {
	Email string `json:"email" validate:"required,max=254,email"`
}

func (f *PasswordResetForm) fromValues(values url.Values) {
	f.Email = value(values, "email")
}

// Validate checks every field.
func (f *PasswordResetForm) Validate() error {
	return validation.Struct(f)
}

// SetPasswordForm chooses a new password from a reset link.
type SetPasswordForm struct {
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (f *SetPasswordForm) fromValues(values url.Values) {
	f.Password = values.Get("password")
	f.PasswordConfirmation = values.Get("password_confirmation")
}

// Validate checks every field.
func (f *SetPasswordForm) Validate() error {
	return validation.Struct(f)
}
