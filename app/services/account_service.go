package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"blogsite/app/forms"
	"blogsite/app/media"
	"blogsite/app/models"
	"blogsite/app/repositories"
	"blogsite/app/validation"

	"github.com/sirupsen/logrus"
)

const (
	msgUsernameTaken  = "A user with that username already exists."
	msgInvalidLogin   = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgAvatarNotImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgAvatarTooLarge = "The avatar may not be larger than 5 MB."
)

// AvatarStore persists avatar uploads.
type AvatarStore interface {
	CheckAvatar(fh *multipart.FileHeader) error
	SaveAvatar(fh *multipart.FileHeader) (string, error)
	Remove(path string) error
}

// AccountService handles registration, sessions, password resets and
// profiles.
type AccountService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	sessions    repositories.TokenRepository
	resets      repositories.TokenRepository
	avatars     AvatarStore
	log         logrus.FieldLogger
	baseURL     string
}

// AccountDeps groups the collaborators of an AccountService.
type AccountDeps struct {
	Users       repositories.UserRepository
	Profiles    repositories.ProfileRepository
	Sessions    repositories.TokenRepository
	ResetTokens repositories.TokenRepository
	Avatars     AvatarStore
	Logger      logrus.FieldLogger
	BaseURL     string
}

// NewAccountService creates an AccountService and registers the hook that
// keeps every user's profile in step with the user record.
func NewAccountService(deps AccountDeps) *AccountService {
	s := &AccountService{
		userRepo:    deps.Users,
		profileRepo: deps.Profiles,
		sessions:    deps.Sessions,
		resets:      deps.ResetTokens,
		avatars:     deps.Avatars,
		log:         deps.Logger,
		baseURL:     strings.TrimRight(deps.BaseURL, "/"),
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.userRepo.OnSave(s.syncProfile)
	return s
}

// syncProfile creates the profile of a new user and re-saves the profile
// after every user write.
func (s *AccountService) syncProfile(user *models.User, created bool) error {
	if created {
		err := s.profileRepo.Create(models.NewProfile(user.ID))
		if err != nil && !errors.Is(err, repositories.ErrDuplicateProfile) {
			return fmt.Errorf("create profile: %w", err)
		}
	}

	profile, err := s.profileRepo.GetByUserID(user.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		// Users created before profiles existed get one on their next save.
		if err := s.profileRepo.Create(models.NewProfile(user.ID)); err != nil {
			return fmt.Errorf("create missing profile: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	return s.profileRepo.Save(profile)
}

// CreateUser validates form and stores a new user. The profile is created by
// the save hook.
func (s *AccountService) CreateUser(form *forms.RegistrationForm) (*models.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(form.Username); err == nil {
		return nil, validation.New("username", msgUsernameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("look up username: %w", err)
	}

	user := &models.User{Username: form.Username, Email: form.Email}
	if err := user.SetPassword(form.Password); err != nil {
		return nil, err
	}
	user.BeforeCreate()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return nil, validation.New("username", msgUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// Register creates the user and logs them in, returning the session token.
func (s *AccountService) Register(form *forms.RegistrationForm) (*models.User, string, error) {
	user, err := s.CreateUser(form)
	if err != nil {
		return nil, "", err
	}
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("start session: %w", err)
	}
	return user, token, nil
}

// Login checks the credentials in form and starts a session.
func (s *AccountService) Login(form *forms.LoginForm) (*models.User, string, error) {
	if err := form.Validate(); err != nil {
		return nil, "", err
	}
	user, err := s.Authenticate(form.Username, form.Password)
	if err != nil {
		return nil, "", err
	}

	user.LastLogin = time.Now().UTC()
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", fmt.Errorf("record login: %w", err)
	}
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("start session: %w", err)
	}
	return user, token, nil
}

// Authenticate returns the user matching username and password.
func (s *AccountService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, validation.New(nonFieldErrors, msgInvalidLogin)
	}
	if err != nil {
		return nil, fmt.Errorf("look up username: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, validation.New(nonFieldErrors, msgInvalidLogin)
	}
	return user, nil
}

// Logout ends the session identified by token.
func (s *AccountService) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(token)
}

// UserForSession resolves a session token to its user.
func (s *AccountService) UserForSession(token string) (*models.User, error) {
	userID, err := s.sessions.Resolve(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// RequestPasswordReset issues a reset token for every account registered
// with the form's email and logs the reset link. It reports success whether
// or not any account matched.
func (s *AccountService) RequestPasswordReset(form *forms.PasswordResetForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	users, err := s.userRepo.ListByEmail(form.Email)
	if err != nil {
		return fmt.Errorf("look up email: %w", err)
	}
	for _, user := range users {
		token, err := s.resets.Issue(user.ID)
		if err != nil {
			return fmt.Errorf("issue reset token: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
			"link":    s.ResetLink(token),
		}).Info("password reset requested")
	}
	return nil
}

// ResetLink is the absolute URL that confirms a reset token.
func (s *AccountService) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset/%s/", s.baseURL, token)
}

// CheckResetToken returns the user a live reset token belongs to.
func (s *AccountService) CheckResetToken(token string) (*models.User, error) {
	userID, err := s.resets.Resolve(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// ConfirmPasswordReset sets a new password from a reset link. The token is
// consumed and every session of the user is ended.
func (s *AccountService) ConfirmPasswordReset(token string, form *forms.SetPasswordForm) error {
	user, err := s.CheckResetToken(token)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}
	if err := user.SetPassword(form.Password); err != nil {
		return err
	}
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	if err := s.resets.Revoke(token); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if err := s.resets.RevokeUser(user.ID); err != nil {
		return fmt.Errorf("revoke reset tokens: %w", err)
	}
	if err := s.sessions.RevokeUser(user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("password reset completed")
	return nil
}

// Profile returns the profile of user.
func (s *AccountService) Profile(user *models.User) (*models.Profile, error) {
	return s.profileRepo.GetByUserID(user.ID)
}

// UpdateProfile validates the user half and the profile half of form (and
// the optional avatar upload) independently, then saves both only when
// everything is valid.
func (s *AccountService) UpdateProfile(user *models.User, form *forms.AccountForm, avatar *multipart.FileHeader) (*models.User, *models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}

	verr := &validation.ValidationError{}
	if err := form.Validate(); err != nil {
		fieldErrs, ok := validation.As(err)
		if !ok {
			return nil, nil, err
		}
		verr.Merge(fieldErrs)
	}
	if other, err := s.userRepo.GetByUsername(form.Username); err == nil && other.ID != user.ID {
		verr.Add("username", msgUsernameTaken)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("look up username: %w", err)
	}
	if avatar != nil {
		if err := s.avatars.CheckAvatar(avatar); err != nil {
			msg, ok := avatarMessage(err)
			if !ok {
				return nil, nil, err
			}
			verr.Add("avatar", msg)
		}
	}
	if !verr.Empty() {
		return nil, nil, verr
	}

	previous := *profile
	profile.Bio = form.Bio
	profile.Website = form.Website
	if err := profile.Validate(); err != nil {
		return nil, nil, err
	}

	oldAvatar := profile.Avatar
	if form.ClearAvatar {
		profile.Avatar = ""
	}
	newAvatar := ""
	if avatar != nil {
		rel, err := s.avatars.SaveAvatar(avatar)
		if err != nil {
			return nil, nil, fmt.Errorf("save avatar: %w", err)
		}
		newAvatar = rel
		profile.Avatar = rel
	}

	// The profile goes first so a failed user update can be rolled back
	// without leaving the new avatar behind.
	if err := s.profileRepo.Save(profile); err != nil {
		s.discardAvatar(newAvatar)
		return nil, nil, fmt.Errorf("save profile: %w", err)
	}

	updated := *user
	updated.Username = form.Username
	updated.Email = form.Email
	if err := s.userRepo.Update(&updated); err != nil {
		if rerr := s.profileRepo.Save(&previous); rerr != nil {
			s.log.WithError(rerr).WithField("user_id", user.ID).Error("could not restore profile")
		}
		s.discardAvatar(newAvatar)
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return nil, nil, validation.New("username", msgUsernameTaken)
		}
		return nil, nil, fmt.Errorf("save user: %w", err)
	}

	if oldAvatar != "" && oldAvatar != profile.Avatar {
		if err := s.avatars.Remove(oldAvatar); err != nil {
			s.log.WithError(err).WithField("path", oldAvatar).Warn("could not remove replaced avatar")
		}
	}
	return &updated, profile, nil
}

// discardAvatar removes an uploaded avatar that never became current.
func (s *AccountService) discardAvatar(rel string) {
	if rel == "" {
		return
	}
	if err := s.avatars.Remove(rel); err != nil {
		s.log.WithError(err).WithField("path", rel).Warn("could not remove unused avatar")
	}
}

// DeleteUser removes the account with username along with its sessions,
// profile, avatar, posts and comments.
func (s *AccountService) DeleteUser(username string) error {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return err
	}

	var avatar string
	if profile, err := s.profileRepo.GetByUserID(user.ID); err == nil {
		avatar = profile.Avatar
	}

	if err := s.sessions.RevokeUser(user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.resets.RevokeUser(user.ID); err != nil {
		return fmt.Errorf("revoke reset tokens: %w", err)
	}
	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if avatar != "" {
		if err := s.avatars.Remove(avatar); err != nil {
			s.log.WithError(err).WithField("path", avatar).Warn("could not remove avatar")
		}
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user deleted")
	return nil
}

func avatarMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, media.ErrNotImage):
		return msgAvatarNotImage, true
	case errors.Is(err, media.ErrTooLarge):
		return msgAvatarTooLarge, true
	}
	return "", false
}
