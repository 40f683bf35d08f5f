package models

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Category groups posts.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// Post represents a blog post. Author, Category and Comments are loaded on
// demand and never persisted with the post.
type Post struct {
	ID         int        `json:"id"`
	Title      string     `json:"title" validate:"required,max=200"`
	Slug       string     `json:"slug" validate:"required,max=200,slug"`
	AuthorID   int        `json:"author_id" validate:"gt=0"`
	CategoryID int        `json:"category_id" validate:"gt=0"`
	Body       string     `json:"body" validate:"required"`
	Publish    time.Time  `json:"publish"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
	Status     PostStatus `json:"status" validate:"required,oneof=draft published"`
	Author     *User      `json:"-" validate:"-"`
	Category   *Category  `json:"-" validate:"-"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	ID      int       `json:"id"`
	PostID  int       `json:"post_id" validate:"gt=0"`
	Name    string    `json:"name" validate:"required,max=80"`
	Email   string    `json:"email" validate:"required,email"`
	Body    string    `json:"body" validate:"required"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Active  bool      `json:"active"`
	Post    *Post     `json:"-" validate:"-"`
}

// User is an account that can log in and author posts.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username" validate:"required,max=150,username"`
	Email        string    `json:"email" validate:"required,max=254,email"`
	PasswordHash string    `json:"password_hash" validate:"required"`
	DateJoined   time.Time `json:"date_joined"`
	LastLogin    time.Time `json:"last_login"`
}

// Profile extends a User one-to-one. Avatar is a path relative to the media
// root.
type Profile struct {
	UserID  int       `json:"user_id" validate:"gt=0"`
	Avatar  string    `json:"avatar"`
	Bio     string    `json:"bio" validate:"max=500"`
	Website string    `json:"website" validate:"omitempty,url"`
	Updated time.Time `json:"updated"`
}
