package controllers

import (
	"context"
	"errors"
	"net/http"

	"blogpress/app/auth"
	"blogpress/app/logging"
	"blogpress/app/models"
	"blogpress/app/sessions"
)

// Authenticator is the account side of auth.Service.
type Authenticator interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, *sessions.Session, error)
	Login(ctx context.Context, in models.LoginInput) (*models.User, *sessions.Session, error)
	Logout(ctx context.Context, token string) error
	LogoutEverywhere(ctx context.Context, identity models.Identity) (int, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthController handles registration, login and logout.
type AuthController struct {
	*Renderer
	auth   Authenticator
	cookie CookieConfig
}

func NewAuthController(rd *Renderer, authenticator Authenticator, cookie CookieConfig) *AuthController {
	return &AuthController{Renderer: rd, auth: authenticator, cookie: cookie}
}

// Register shows and processes the sign-up form.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		ac.render(w, r, http.StatusOK, "register", &PageData{Title: "Register"})
		return
	}

	if err := r.ParseForm(); err != nil {
		ac.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	in := models.RegisterInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	_, session, err := ac.auth.Register(r.Context(), in)
	if errors.Is(err, auth.ErrAlreadyRegistered) {
		ac.flashes.Add(w, r, FlashAlreadyRegistered)
		ac.redirect(w, r, "/login")
		return
	}
	if fields, ok := fieldErrors(err); ok {
		ac.render(w, r, http.StatusUnprocessableEntity, "register", &PageData{
			Title:  "Register",
			Form:   map[string]string{"name": in.Name, "email": in.Email},
			Errors: fields,
		})
		return
	}
	if err != nil {
		ac.serverError(w, r, err)
		return
	}

	ac.setSession(w, session)
	ac.redirect(w, r, "/")
}

// Login shows and processes the login form.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		ac.render(w, r, http.StatusOK, "login", &PageData{Title: "Log In"})
		return
	}

	if err := r.ParseForm(); err != nil {
		ac.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	in := models.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	form := map[string]string{"email": in.Email}

	_, session, err := ac.auth.Login(r.Context(), in)
	switch {
	case errors.Is(err, auth.ErrEmailNotFound):
		ac.flashes.Add(w, r, FlashEmailNotFound)
		ac.redirect(w, r, "/login")
		return
	case errors.Is(err, auth.ErrIncorrectPassword):
		ac.render(w, r, http.StatusOK, "login", &PageData{
			Title:     "Log In",
			Form:      form,
			FormError: FlashIncorrectPassword,
		})
		return
	}
	if fields, ok := fieldErrors(err); ok {
		ac.render(w, r, http.StatusUnprocessableEntity, "login", &PageData{Title: "Log In", Form: form, Errors: fields})
		return
	}
	if err != nil {
		ac.serverError(w, r, err)
		return
	}

	ac.setSession(w, session)
	ac.redirect(w, r, "/")
}

// Logout ends the current session and clears the cookie.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(ac.cookie.Name); err == nil && cookie.Value != "" {
		if err := ac.auth.Logout(r.Context(), cookie.Value); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("logout failed")
		}
	}
	ac.clearSession(w)
	ac.redirect(w, r, "/")
}

// LogoutAll ends every session of the current user, including the ones on
// other devices.
func (ac *AuthController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity.IsAuthenticated() {
		if _, err := ac.auth.LogoutEverywhere(r.Context(), identity); err != nil {
			ac.serverError(w, r, err)
			return
		}
	}
	ac.clearSession(w)
	ac.redirect(w, r, "/")
}

func (ac *AuthController) setSession(w http.ResponseWriter, session *sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     ac.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   ac.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ac *AuthController) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ac.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
