package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"blogsite/app/forms"
	"blogsite/app/middleware"
	"blogsite/app/repositories"
	"blogsite/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AccountController handles registration, login, logout, password resets
// and the profile page.
type AccountController struct {
	*responder
	accounts      *services.AccountService
	sessionTTL    time.Duration
	secureCookies bool
}

// AccountOptions configures the session cookie.
type AccountOptions struct {
	SessionTTL    time.Duration
	SecureCookies bool
}

// NewAccountController creates a new AccountController
func NewAccountController(accounts *services.AccountService, templates map[string]*template.Template,
	log logrus.FieldLogger, opts AccountOptions) *AccountController {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = repositories.DefaultSessionTTL
	}
	return &AccountController{
		responder:     newResponder(templates, log),
		accounts:      accounts,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
	}
}

// Register shows and handles the sign-up form. A successful registration
// logs the new user in.
func (ac *AccountController) Register(w http.ResponseWriter, r *http.Request) {
	form := &forms.RegistrationForm{}
	if r.Method != http.MethodPost {
		ac.render(w, r, "registration/register", http.StatusOK, data{"Form": form})
		return
	}
	if err := forms.Bind(r, form); err != nil {
		ac.sendError(w, r, err)
		return
	}

	user, token, err := ac.accounts.Register(form)
	if err != nil {
		ac.formFailed(w, r, err, "registration/register", data{"Form": &forms.RegistrationForm{Username: form.Username, Email: form.Email}})
		return
	}
	ac.setSession(w, token)
	if middleware.WantsJSON(r) {
		ac.sendJSON(w, http.StatusCreated, user.Public())
		return
	}
	redirect(w, r, "/blog/")
}

// Login shows and handles the login form.
func (ac *AccountController) Login(w http.ResponseWriter, r *http.Request) {
	form := &forms.LoginForm{Next: r.URL.Query().Get("next")}
	if r.Method != http.MethodPost {
		ac.render(w, r, "registration/login", http.StatusOK, data{"Form": form})
		return
	}
	if err := forms.Bind(r, form); err != nil {
		ac.sendError(w, r, err)
		return
	}

	user, token, err := ac.accounts.Login(form)
	if err != nil {
		form.Password = ""
		ac.formFailed(w, r, err, "registration/login", data{"Form": form})
		return
	}
	ac.setSession(w, token)
	if middleware.WantsJSON(r) {
		ac.sendJSON(w, http.StatusOK, user.Public())
		return
	}
	redirect(w, r, safeNext(form.Next, "/blog/"))
}

// Logout ends the session and goes home.
func (ac *AccountController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := ac.accounts.Logout(cookie.Value); err != nil {
			ac.sendError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, "/")
}

// PasswordReset shows and handles the "forgotten password" form.
func (ac *AccountController) PasswordReset(w http.ResponseWriter, r *http.Request) {
	form := &forms.PasswordResetForm{}
	if r.Method != http.MethodPost {
		ac.render(w, r, "registration/password_reset_form", http.StatusOK, data{"Form": form})
		return
	}
	if err := forms.Bind(r, form); err != nil {
		ac.sendError(w, r, err)
		return
	}
	if err := ac.accounts.RequestPasswordReset(form); err != nil {
		ac.formFailed(w, r, err, "registration/password_reset_form", data{"Form": form})
		return
	}
	if middleware.WantsJSON(r) {
		ac.sendJSON(w, http.StatusOK, map[string]string{"detail": "Password reset e-mail has been sent."})
		return
	}
	redirect(w, r, "/password_reset/done/")
}

// PasswordResetDone confirms that a reset was requested.
func (ac *AccountController) PasswordResetDone(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, "registration/password_reset_done", http.StatusOK, nil)
}

// PasswordResetConfirm lets the holder of a reset link choose a new
// password.
func (ac *AccountController) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	form := &forms.SetPasswordForm{}

	if _, err := ac.accounts.CheckResetToken(token); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) || middleware.WantsJSON(r) {
			ac.sendError(w, r, err)
			return
		}
		ac.render(w, r, "registration/password_reset_confirm", http.StatusOK, data{"ValidLink": false, "Form": form})
		return
	}

	if r.Method != http.MethodPost {
		ac.render(w, r, "registration/password_reset_confirm", http.StatusOK, data{"ValidLink": true, "Form": form})
		return
	}
	if err := forms.Bind(r, form); err != nil {
		ac.sendError(w, r, err)
		return
	}
	if err := ac.accounts.ConfirmPasswordReset(token, form); err != nil {
		ac.formFailed(w, r, err, "registration/password_reset_confirm", data{"ValidLink": true, "Form": &forms.SetPasswordForm{}})
		return
	}
	if middleware.WantsJSON(r) {
		ac.sendJSON(w, http.StatusOK, map[string]string{"detail": "Password has been reset with the new password."})
		return
	}
	redirect(w, r, "/reset/done/")
}

// PasswordResetComplete confirms the new password was set.
func (ac *AccountController) PasswordResetComplete(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, "registration/password_reset_complete", http.StatusOK, nil)
}

// Profile shows and handles the profile page of the logged in user.
func (ac *AccountController) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	profile, err := ac.accounts.Profile(user)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		if middleware.WantsJSON(r) {
			ac.sendJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public(), "profile": profile})
			return
		}
		form := &forms.AccountForm{
			UserForm:    forms.UserForm{Username: user.Username, Email: user.Email},
			ProfileForm: forms.ProfileForm{Bio: profile.Bio, Website: profile.Website},
		}
		ac.render(w, r, "profile/edit", http.StatusOK, data{
			"Form": form, "Profile": profile, "Saved": r.URL.Query().Get("saved") == "1",
		})
		return
	}

	form := &forms.AccountForm{}
	if err := forms.Bind(r, form); err != nil {
		ac.sendError(w, r, err)
		return
	}
	avatar, err := uploadedFile(r, "avatar")
	if err != nil {
		ac.sendError(w, r, err)
		return
	}

	updatedUser, updatedProfile, err := ac.accounts.UpdateProfile(user, form, avatar)
	if err != nil {
		ac.formFailed(w, r, err, "profile/edit", data{"Form": form, "Profile": profile})
		return
	}
	if middleware.WantsJSON(r) {
		ac.sendJSON(w, http.StatusOK, map[string]interface{}{"user": updatedUser.Public(), "profile": updatedProfile})
		return
	}
	redirect(w, r, "/profile/?saved=1")
}

func (ac *AccountController) formFailed(w http.ResponseWriter, r *http.Request, err error, page string, d data) {
	fieldErrs, ok := formErrors(err)
	if !ok || middleware.WantsJSON(r) {
		ac.sendError(w, r, err)
		return
	}
	d["Errors"] = fieldErrs
	ac.render(w, r, page, http.StatusBadRequest, d)
}

func (ac *AccountController) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ac.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   ac.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
