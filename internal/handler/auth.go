package handler

import (
	"context"
	"errors"
	"net/http"

	"kart-storefront/internal/api"
	"kart-storefront/internal/model"
	"kart-storefront/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthAPI is the slice of the remote API the auth pages need.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	UpdateCustomer(ctx context.Context, token string, patch api.CustomerPatch) (*model.Customer, error)
}

// AuthHandler handles login, logout and the profile page.
type AuthHandler struct {
	api      AuthAPI
	session  *store.Session
	validate *validator.Validate
	pages    *PageHandler
	renderer *Renderer
	logger   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authAPI AuthAPI, session *store.Session, pages *PageHandler, renderer *Renderer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		api:      authAPI,
		session:  session,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    pages,
		renderer: renderer,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginData struct {
	pageContext
	Email string
	Error string
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.session.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, http.StatusOK, "login.html", loginData{
		pageContext: h.pages.page("Log in"),
	})
}

// Login handles POST /login: validates the form, exchanges credentials for
// a token and stores the session. Network failures surface as an inline
// message with the form intact so the customer can retry.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid form submission", h.logger)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.renderLoginError(w, http.StatusUnprocessableEntity, form.Email,
			"Enter a valid email address and a password of at least 8 characters.")
		return
	}

	result, err := h.api.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			h.renderLoginError(w, http.StatusUnauthorized, form.Email,
				"Email or password is incorrect.")
			return
		}
		h.logger.Error().Err(err).Msg("login request failed")
		h.renderLoginError(w, http.StatusBadGateway, form.Email,
			"We could not reach the shop right now. Please try again.")
		return
	}

	h.session.Login(result.Token, result.Customer)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type profileForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Phone     string `validate:"omitempty,min=7"`
}

type profileData struct {
	pageContext
	Error string
}

// Profile handles GET /profile. Reached only through the session gate.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "profile.html", profileData{
		pageContext: h.pages.page("Profile"),
	})
}

// UpdateProfile handles POST /profile: patches the remote profile, then
// refreshes the local session so the stored customer matches the API.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid form submission", h.logger)
		return
	}

	form := profileForm{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Phone:     r.PostFormValue("phone"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.renderProfileError(w, http.StatusUnprocessableEntity,
			"First and last name are required; phone numbers need at least 7 digits.")
		return
	}

	patch := api.CustomerPatch{
		FirstName: &form.FirstName,
		LastName:  &form.LastName,
	}
	if form.Phone != "" {
		patch.Phone = &form.Phone
	}

	if _, err := h.api.UpdateCustomer(r.Context(), h.session.Token(), patch); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			h.session.Logout()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.logger.Error().Err(err).Msg("profile update failed")
		h.renderProfileError(w, http.StatusBadGateway,
			"We could not save your changes right now. Please try again.")
		return
	}

	if err := h.session.RefreshCustomer(r.Context()); err != nil {
		if errors.Is(err, model.ErrSessionExpired) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		// The patch succeeded; a stale local profile is acceptable until
		// the next refresh.
		h.logger.Warn().Err(err).Msg("session refresh after profile update failed")
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, status int, email, message string) {
	h.renderer.Render(w, status, "login.html", loginData{
		pageContext: h.pages.page("Log in"),
		Email:       email,
		Error:       message,
	})
}

func (h *AuthHandler) renderProfileError(w http.ResponseWriter, status int, message string) {
	h.renderer.Render(w, status, "profile.html", profileData{
		pageContext: h.pages.page("Profile"),
		Error:       message,
	})
}
