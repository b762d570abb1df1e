package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veriphone/verify-api/internal/api/metrics"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

const (
	refreshCookieName = "refresh_token"

	// The cookie is scoped to the auth routes so it never rides along on
	// regular API calls.
	refreshCookiePath = "/auth"
)

// AuthHandler handles the credential and session endpoints.
type AuthHandler struct {
	auth          ports.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(auth ports.AuthService, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, refreshTTL: refreshTTL, secureCookies: secureCookies}
}

// --- Request / Response types ---

type signupRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

type signupResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"        validate:"required"`
	Password string `json:"new_password" validate:"required"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup creates a new account.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.auth.Signup(c.Request().Context(), ports.SignupInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		TenantID: req.TenantID,
	})
	if err != nil {
		return err
	}

	metrics.SignupsTotal.Inc()
	return c.JSON(http.StatusCreated, signupResponse{ID: user.ID})
}

// Login verifies credentials and opens a session: an access token in the body
// and the refresh token in an HTTP-only cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, req.Role, c.RealIP())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: pair.AccessToken,
		User:        user.Sanitized(),
	})
}

// Refresh rotates the refresh token presented in the cookie and returns a new
// access token. Any failure clears the cookie so clients stop replaying a
// token the backend will never accept again.
//
// @Summary      Rotate the refresh token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  refreshResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return domain.ErrUnauthorized
	}

	pair, err := h.auth.Refresh(c.Request().Context(), cookie.Value, c.RealIP())
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, domain.ErrTokenReused):
			metrics.TokenRotationsTotal.WithLabelValues("reuse").Inc()
		default:
			metrics.TokenRotationsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}

	metrics.TokenRotationsTotal.WithLabelValues("rotated").Inc()
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, refreshResponse{AccessToken: pair.AccessToken})
}

// Logout clears the stored refresh token and the cookie. Idempotent: logging
// out an already logged-out session still returns 200.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), identity.UserID); err != nil {
		return err
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out."})
}

// Me returns the authenticated user's account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.auth.Me(c.Request().Context(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Sanitized())
}

// RequestPasswordReset always answers 202 so the endpoint cannot be used to
// probe which emails have accounts.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      429   {object}  map[string]string
// @Router       /auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email, c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "If that email exists, a reset link has been sent.",
	})
}

// ConfirmPasswordReset sets a new password from a valid reset token.
//
// @Summary      Confirm a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetConfirmRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated."})
}

// VerifyEmail marks the account's email as verified.
//
// @Summary      Verify an email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrBadRequest
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Email verified."})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
