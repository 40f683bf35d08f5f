package services

import (
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"blogsite/app/forms"
	"blogsite/app/media"
	"blogsite/app/models"
	"blogsite/app/repositories/mock"
	"blogsite/app/validation"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	posts      *mock.PostRepository
	comments   *mock.CommentRepository
	categories *mock.CategoryRepository
	users      *mock.UserRepository
	profiles   *mock.ProfileRepository
	sessions   *mock.TokenRepository
	resets     *mock.TokenRepository
	avatars    *fakeAvatars
	logs       *logtest.Hook

	postService    *PostService
	commentService *CommentService
	accountService *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	f := &fixture{
		posts:      mock.NewPostRepository(),
		comments:   mock.NewCommentRepository(),
		categories: mock.NewCategoryRepository(),
		users:      mock.NewUserRepository(),
		profiles:   mock.NewProfileRepository(),
		sessions:   mock.NewTokenRepository(),
		resets:     mock.NewTokenRepository(),
		avatars:    &fakeAvatars{},
		logs:       hook,
	}
	f.postService = NewPostService(f.posts, f.categories, f.users)
	f.commentService = NewCommentService(f.comments, f.posts)
	f.accountService = NewAccountService(AccountDeps{
		Users:       f.users,
		Profiles:    f.profiles,
		Sessions:    f.sessions,
		ResetTokens: f.resets,
		Avatars:     f.avatars,
		Logger:      logger,
		BaseURL:     "http://blog.test/",
	})
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := f.accountService.CreateUser(&forms.RegistrationForm{
		Username:             username,
		Email:                username + "@example.com",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, f.categories.Create(category))
	return category
}

func (f *fixture) post(t *testing.T, author *models.User, slug string, publish time.Time, status models.PostStatus) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:      "Post " + slug,
		Slug:       slug,
		AuthorID:   author.ID,
		CategoryID: 1,
		Body:       "Body",
		Publish:    publish,
		Status:     status,
	}
	post.BeforeCreate()
	require.NoError(t, f.posts.Create(post))
	return post
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	verr, ok := validation.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Contains(t, verr.Fields, field)
}

// fakeAvatars accepts any upload named *.png and records saves and removals.
type fakeAvatars struct {
	saved   []string
	removed []string
}

func (f *fakeAvatars) CheckAvatar(fh *multipart.FileHeader) error {
	if fh.Size > media.MaxAvatarSize {
		return media.ErrTooLarge
	}
	if len(fh.Filename) < 4 || fh.Filename[len(fh.Filename)-4:] != ".png" {
		return media.ErrNotImage
	}
	return nil
}

func (f *fakeAvatars) SaveAvatar(fh *multipart.FileHeader) (string, error) {
	if err := f.CheckAvatar(fh); err != nil {
		return "", err
	}
	if fh.Filename == "fail.png" {
		return "", errors.New("disk full")
	}
	path := "avatars/" + fh.Filename
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeAvatars) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}
