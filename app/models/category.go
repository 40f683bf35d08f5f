package models

import "blogsite/app/validation"

// Validate checks the category name.
func (c *Category) Validate() error {
	return validation.Struct(c)
}

func (c *Category) String() string {
	return c.Name
}
