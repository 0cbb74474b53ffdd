package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/config"
	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/queue"
	"github.com/centilliongw/portal-api/internal/repository"
	"github.com/centilliongw/portal-api/internal/utils"
)

// AuthHandler owns registration, login, verification and profile routes.
// PublishEmail is the hook through which verification events reach the mail
// queue; tests swap it for a recorder.
type AuthHandler struct {
	Cfg          *config.Config
	Accounts     repository.AccountStore
	PublishEmail func(ctx context.Context, ev queue.VerificationEmailEvent) error
}

func NewAuthHandler(cfg *config.Config, accounts repository.AccountStore,
	publish func(ctx context.Context, ev queue.VerificationEmailEvent) error) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, PublishEmail: publish}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Age      string `json:"age"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Age      string `json:"age"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
}

// Register creates an unverified account with a throwaway password and queues
// the verification email.  The caller never learns the temporary password;
// they set their own after verifying.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Age = strings.TrimSpace(req.Age)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Country = strings.TrimSpace(req.Country)

	if req.FullName == "" || req.Email == "" || req.Age == "" || req.Phone == "" || req.Country == "" {
		return fail(c, http.StatusBadRequest, "please provide all required fields")
	}
	if !strings.Contains(req.Email, "@") {
		return fail(c, http.StatusBadRequest, "please provide a valid email")
	}

	temp, err := utils.NewTempPassword()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	hash, err := utils.HashPassword(temp, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	token, err := utils.NewVerificationToken()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	id, err := utils.NewAccountID()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	expires := time.Now().Add(24 * time.Hour)

	a := model.Account{
		ID:                  id,
		FullName:            req.FullName,
		Email:               req.Email,
		Age:                 req.Age,
		Phone:               req.Phone,
		Country:             req.Country,
		PasswordHash:        hash,
		Role:                model.RoleUser,
		IsFirstLogin:        true,
		VerificationToken:   &token,
		VerificationExpires: &expires,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Accounts.Create(ctx, a); err != nil {
		if err == repository.ErrEmailExists {
			return fail(c, http.StatusConflict, "an account with this email already exists")
		}
		return fail(c, http.StatusInternalServerError, "could not create account")
	}

	// Mail delivery is best effort: a queue outage must not fail the
	// registration, the user can ask for the mail again via support.
	if h.PublishEmail != nil {
		ev := queue.VerificationEmailEvent{
			AccountID:   a.ID,
			Email:       a.Email,
			FullName:    a.FullName,
			Token:       token,
			RequestedAt: time.Now().UTC(),
		}
		if err := h.PublishEmail(ctx, ev); err != nil {
			log.Printf("auth: queueing verification email for %s failed: %v", a.Email, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "registration successful. please check your email to verify your account.",
		"userId":  a.ID,
		"data":    echo.Map{"id": a.ID, "email": a.Email},
	})
}

// Login validates credentials and issues a session token.  Unknown emails and
// wrong passwords produce the same error so the endpoint cannot be used to
// probe which addresses are registered.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "please provide email and password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusUnauthorized, "invalid email or password")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if !a.IsVerified {
		return fail(c, http.StatusUnauthorized, "please verify your email before logging in")
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, a.ID, a.Role, h.Cfg.JWTTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	wasFirstLogin := a.IsFirstLogin
	if wasFirstLogin {
		if err := h.Accounts.ClearFirstLogin(ctx, a.ID); err != nil {
			return fail(c, http.StatusInternalServerError, "server error")
		}
	}

	v, err := h.Accounts.View(ctx, a.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	user := userJSON(v)
	user["isFirstLogin"] = wasFirstLogin

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   tok.Token,
		"expires": tok.Exp,
		"user":    user,
	})
}

// VerifyEmail consumes a verification token.  Tokens are single use and
// expire 24 hours after registration; a consumed or expired token is
// indistinguishable from an unknown one.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		return fail(c, http.StatusBadRequest, "verification token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Accounts.GetByVerificationToken(ctx, token, time.Now())
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusBadRequest, "invalid or expired verification token")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	if err := h.Accounts.MarkVerified(ctx, a.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, a.ID, a.Role, h.Cfg.JWTTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	v, err := h.Accounts.View(ctx, a.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "email verified successfully. please set your password.",
		"token":   tok.Token,
		"user":    userJSON(v),
	})
}

// ChangePassword sets a new password.  Accounts that still carry the
// throwaway registration password (passwordSet false) may set their first
// password without supplying the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return fail(c, http.StatusBadRequest, "password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	if a.PasswordSet {
		if req.CurrentPassword == "" {
			return fail(c, http.StatusBadRequest, "current password is required")
		}
		if !utils.VerifyPassword(a.PasswordHash, req.CurrentPassword) {
			return fail(c, http.StatusBadRequest, "current password is incorrect")
		}
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	if err := h.Accounts.SetPassword(ctx, id, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password updated successfully",
	})
}

// UpdateProfile patches the caller's profile fields and recomputes the
// profile-completed flag.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	if s := strings.TrimSpace(req.FullName); s != "" {
		a.FullName = s
	}
	if s := strings.TrimSpace(req.Age); s != "" {
		a.Age = s
	}
	if s := strings.TrimSpace(req.Phone); s != "" {
		a.Phone = s
	}
	if s := strings.TrimSpace(req.Country); s != "" {
		a.Country = s
	}
	completed := a.FullName != "" && a.Age != "" && a.Phone != "" && a.Country != ""

	if err := h.Accounts.UpdateProfile(ctx, id, a.FullName, a.Age, a.Phone, a.Country, completed); err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	v, err := h.Accounts.View(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": userJSON(v)})
}

// Me returns the caller's account with the derived form status.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	v, err := h.Accounts.View(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": userJSON(v)})
}
