package models

import (
	"errors"
	"time"

	"blogsite/app/validation"
)

// NewComment builds an active comment for postID.
func NewComment(postID int, name, email, body string) *Comment {
	return &Comment{
		PostID: postID,
		Name:   name,
		Email:  email,
		Body:   body,
		Active: true,
	}
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validation.Struct(c)
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	now := time.Now().UTC()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now
}

// BeforeSave refreshes the modification time.
func (c *Comment) BeforeSave() {
	c.Updated = time.Now().UTC()
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}
