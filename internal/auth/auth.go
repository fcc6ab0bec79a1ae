package auth

import (
	"net/http"
	"strings"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	emailverifier "github.com/AfterShip/email-verifier"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	MinPasswordLength = 6

	msgInvalidEmail  = "Invalid email address."
	msgShortPassword = "Password must be at least 6 characters."
)

// Syntax checks only; a mock account never receives mail.
var verifier = emailverifier.NewVerifier()

// Credentials is the login and signup request body.
type Credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate returns field -> message for every invalid field.
func (cr *Credentials) Validate() map[string]string {
	cr.Email = strings.TrimSpace(cr.Email)

	problems := make(map[string]string)
	if cr.Email == "" || !verifier.ParseAddress(cr.Email).Valid {
		problems["email"] = msgInvalidEmail
	}
	if len(cr.Password) < MinPasswordLength {
		problems["password"] = msgShortPassword
	}
	return problems
}

// Handler serves the login, signup and logout endpoints.
type Handler struct {
	store    *Store
	tokens   *TokenIssuer
	sessions sessions.Store
}

func NewHandler(store *Store, tokens *TokenIssuer, sessionStore sessions.Store) *Handler {
	return &Handler{store: store, tokens: tokens, sessions: sessionStore}
}

// Store returns the underlying auth store.
func (h *Handler) Store() *Store {
	return h.store
}

func (h *Handler) LoginPage(c echo.Context) error {
	return utility.RenderPage(c, h.sessions, http.StatusOK, "login.html", nil)
}

func (h *Handler) SignupPage(c echo.Context) error {
	return utility.RenderPage(c, h.sessions, http.StatusOK, "signup.html", nil)
}

func (h *Handler) LoginHandler(c echo.Context) error {
	return h.formAuth(c, "login.html", "Login Failed", h.store.Login)
}

func (h *Handler) SignupHandler(c echo.Context) error {
	return h.formAuth(c, "signup.html", "Signup Failed", h.store.Signup)
}

func (h *Handler) formAuth(c echo.Context, page, failTitle string, op authFunc) error {
	logger := utility.Logger(c)

	var req Credentials
	if err := c.Bind(&req); err != nil {
		return utility.RenderPage(c, h.sessions, http.StatusBadRequest, page, map[string]interface{}{
			"flashes": []utility.Flash{{Kind: utility.FlashError, Title: failTitle, Message: "Invalid request"}},
		})
	}

	if problems := req.Validate(); len(problems) > 0 {
		return utility.RenderPage(c, h.sessions, http.StatusBadRequest, page, map[string]interface{}{
			"email":  req.Email,
			"errors": problems,
		})
	}

	user, err := op(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		logger.Error().Err(err).Str("email", req.Email).Msg("Authentication failed")
		return utility.RenderPage(c, h.sessions, http.StatusInternalServerError, page, map[string]interface{}{
			"email": req.Email,
			"flashes": []utility.Flash{{
				Kind:    utility.FlashError,
				Title:   failTitle,
				Message: "An unexpected error occurred. Please try again.",
			}},
		})
	}

	utility.AddFlash(c, h.sessions, utility.Flash{
		Kind:    utility.FlashSuccess,
		Title:   "Welcome",
		Message: "Signed in as " + user.Email + ".",
	})
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) LogoutHandler(c echo.Context) error {
	if err := h.store.Logout(c.Request().Context()); err != nil {
		utility.Logger(c).Error().Err(err).Msg("Logout could not clear persisted state")
	}
	utility.AddFlash(c, h.sessions, utility.Flash{Kind: utility.FlashInfo, Title: "Logged out"})
	return c.Redirect(http.StatusSeeOther, "/login")
}

// APILoginHandler logs in and returns a bearer token.
func (h *Handler) APILoginHandler(c echo.Context) error {
	return h.apiAuth(c, h.store.Login)
}

// APISignupHandler signs up and returns a bearer token.
func (h *Handler) APISignupHandler(c echo.Context) error {
	return h.apiAuth(c, h.store.Signup)
}

func (h *Handler) apiAuth(c echo.Context, op authFunc) error {
	var req Credentials
	if err := c.Bind(&req); err != nil {
		return utility.JSONError(c, http.StatusBadRequest, "Invalid request")
	}
	if problems := req.Validate(); len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": problems,
		})
	}

	user, err := op(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		utility.Logger(c).Error().Err(err).Str("email", req.Email).Msg("API authentication failed")
		return utility.JSONError(c, http.StatusInternalServerError, "Internal server error")
	}

	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		utility.Logger(c).Error().Err(err).Msg("Error generating access token")
		return utility.JSONError(c, http.StatusInternalServerError, "Error generating access token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expires,
		"user":         user,
	})
}

func (h *Handler) APILogoutHandler(c echo.Context) error {
	if err := h.store.Logout(c.Request().Context()); err != nil {
		utility.Logger(c).Error().Err(err).Msg("Logout could not clear persisted state")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// RequireUser gates pages: without a logged-in user the client is sent to
// /login.
func (h *Handler) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := h.store.CurrentUser()
		if !ok {
			if utility.IsAPIRequest(c) {
				return utility.JSONError(c, http.StatusUnauthorized, "Not logged in")
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		c.Set(utility.ContextUserKey, user)
		return next(c)
	}
}

// RedirectIfAuthenticated sends a logged-in user straight to the dashboard.
func (h *Handler) RedirectIfAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := h.store.CurrentUser(); ok {
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		return next(c)
	}
}

// JwtAuthMiddleware accepts a bearer token only while its email is the
// store's current user.
func (h *Handler) JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utility.JSONError(c, http.StatusUnauthorized, "Missing bearer token")
		}

		claims, err := h.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utility.Logger(c).Debug().Err(err).Msg("Token validation error")
			return utility.JSONError(c, http.StatusUnauthorized, "Invalid or expired token")
		}

		user, ok := h.store.CurrentUser()
		if !ok || !strings.EqualFold(user.Email, claims.Email) {
			return utility.JSONError(c, http.StatusUnauthorized, ErrSessionEnded.Error())
		}

		c.Set(utility.ContextUserKey, user)
		return next(c)
	}
}
