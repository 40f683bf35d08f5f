package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	user := &User{Username: "alice", Email: "a@x.com"}
	require.NoError(t, user.SetPassword("pw123456"))

	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.True(t, user.CheckPassword("pw123456"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.NoError(t, user.Validate())
}

func TestUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{name: "valid", user: User{Username: "alice", Email: "a@x.com", PasswordHash: "x"}},
		{name: "bad username", user: User{Username: "al ice", Email: "a@x.com", PasswordHash: "x"}, wantErr: true},
		{name: "missing email", user: User{Username: "alice", PasswordHash: "x"}, wantErr: true},
		{name: "missing hash", user: User{Username: "alice", Email: "a@x.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername(" Alice "))
}

func TestProfileValidation(t *testing.T) {
	profile := NewProfile(1)
	assert.NoError(t, profile.Validate())

	profile.Website = "not a url"
	assert.Error(t, profile.Validate())

	profile.Website = "https://example.com"
	profile.Bio = string(make([]rune, 501))
	assert.Error(t, profile.Validate())

	profile.BeforeSave()
	assert.False(t, profile.Updated.IsZero())
}

func TestCategoryValidation(t *testing.T) {
	assert.Error(t, (&Category{}).Validate())
	assert.NoError(t, (&Category{Name: "Go"}).Validate())
}

func TestUserPublic(t *testing.T) {
	u := &User{ID: 3, Username: "ann", Email: "ann@example.com", PasswordHash: "secret"}
	pub := u.Public()
	assert.Equal(t, 3, pub.ID)
	assert.Equal(t, "ann", pub.Username)
	assert.Equal(t, "ann@example.com", pub.Email)
}
