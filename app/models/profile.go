package models

import (
	"time"

	"blogsite/app/validation"
)

// NewProfile returns the empty profile linked to userID.
func NewProfile(userID int) *Profile {
	return &Profile{UserID: userID}
}

// Validate checks bio length and website format.
func (p *Profile) Validate() error {
	return validation.Struct(p)
}

// BeforeSave refreshes the modification time.
func (p *Profile) BeforeSave() {
	p.Updated = time.Now().UTC()
}
