package models

import (
	"fmt"
	"time"

	"blogsite/app/validation"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.Publish.IsZero() {
		return validation.New("publish", "This field is required.")
	}
	return nil
}

// BeforeCreate fills the creation defaults: timestamps, publish time and
// draft status.
func (p *Post) BeforeCreate() {
	now := time.Now().UTC()
	if p.Created.IsZero() {
		p.Created = now
	}
	p.Updated = now
	if p.Publish.IsZero() {
		p.Publish = p.Created
	}
	p.Publish = p.Publish.UTC()
	if p.Status == "" {
		p.Status = StatusDraft
	}
}

// BeforeSave refreshes the modification time.
func (p *Post) BeforeSave() {
	p.Updated = time.Now().UTC()
	p.Publish = p.Publish.UTC()
}

// IsPublished reports whether the post is visible to visitors.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsAuthoredBy reports whether user wrote the post.
func (p *Post) IsAuthoredBy(user *User) bool {
	return user != nil && user.ID == p.AuthorID
}

// PublishDate is the UTC calendar day the slug is unique within.
func (p *Post) PublishDate() string {
	return DateKey(p.Publish)
}

// URL returns the canonical detail path of the post.
func (p *Post) URL() string {
	t := p.Publish.UTC()
	return fmt.Sprintf("/blog/%d/%d/%d/%s/", t.Year(), int(t.Month()), t.Day(), p.Slug)
}

// DateKey formats t as the UTC day used for slug uniqueness.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
