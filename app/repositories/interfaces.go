package repositories

import (
	"time"

	"blogsite/app/models"
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	GetByDateSlug(date time.Time, slug string) (*models.Post, error)
	ListPublished() ([]*models.Post, error)
	ListByAuthor(authorID int) ([]*models.Post, error)
	Update(post *models.Post) error
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	ListByPost(postID int) ([]*models.Comment, error)
	ListActiveByPost(postID int) ([]*models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id int) error
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id int) (*models.Category, error)
	List() ([]*models.Category, error)
}

// UserHook runs after a user write has committed. created is true for the
// write that inserted the user.
type UserHook func(user *models.User, created bool) error

// UserRepository defines the interface for user data access. Every Create
// and Update runs the registered hooks before returning.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	ListByEmail(email string) ([]*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	OnSave(hook UserHook)
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByUserID(userID int) (*models.Profile, error)
	Save(profile *models.Profile) error
}

// TokenRepository stores expiring opaque tokens that resolve to a user.
type TokenRepository interface {
	Issue(userID int) (string, error)
	Resolve(token string) (int, error)
	Revoke(token string) error
	RevokeUser(userID int) error
}

var (
	_ PostRepository     = (*BadgerPostRepository)(nil)
	_ CommentRepository  = (*BadgerCommentRepository)(nil)
	_ CategoryRepository = (*BadgerCategoryRepository)(nil)
	_ UserRepository     = (*BadgerUserRepository)(nil)
	_ ProfileRepository  = (*BadgerProfileRepository)(nil)
	_ TokenRepository    = (*BadgerTokenRepository)(nil)
)
