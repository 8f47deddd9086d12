package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/PrabuPro/restaurant-web-app/internal/middleware"
	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

// AuthHandler handles registration, login/logout, the account page and the
// password-reset flow.
type AuthHandler struct {
	authService *services.AuthService
	sessions    *session.Store
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessions *session.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/login", h.HandleLoginForm)
	router.Post("/login", h.HandleLogin)
	router.Get("/register", h.HandleRegisterForm)
	router.Post("/register", h.HandleRegister)
	router.Get("/logout", requireAuth, h.HandleLogout)

	router.Get("/account", requireAuth, h.HandleAccountForm)
	router.Post("/account", requireAuth, h.HandleAccountUpdate)
	router.Post("/account/forgot", h.HandleForgot)
	router.Get("/account/reset/:token", h.HandleResetForm)
	router.Post("/account/reset/:token", h.HandleReset)
}

// RegisterRequest represents the registration form.
type RegisterRequest struct {
	Name            string `form:"name" validate:"required,min=2,max=100"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	PasswordConfirm string `form:"password-confirm" validate:"required"`
}

// HandleRegisterForm renders the registration page.
func (h *AuthHandler) HandleRegisterForm(c *fiber.Ctx) error {
	return c.Render("register", viewData(c, h.sessions, fiber.Map{"Title": "Register"}))
}

// HandleRegister registers a new account and logs it in.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Invalid registration form")
		return c.Redirect("/register")
	}
	if err := h.validate.Struct(req); err != nil {
		addFlash(c, h.sessions, "error", validationMessage(err))
		return c.Redirect("/register")
	}
	if req.Password != req.PasswordConfirm {
		addFlash(c, h.sessions, "error", "Passwords do not match!")
		return c.Redirect("/register")
	}

	user := &models.User{Name: req.Name, Email: req.Email}
	if err := h.authService.Register(user, req.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			addFlash(c, h.sessions, "error", "That email is already registered")
			return c.Redirect("/register")
		}
		return err
	}

	if err := h.establishSession(c, user.ID); err != nil {
		return err
	}
	addFlash(c, h.sessions, "success", fmt.Sprintf("Welcome, %s! Your account is ready.", user.Name))
	return c.Redirect("/")
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// HandleLoginForm renders the login page.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	return c.Render("login", viewData(c, h.sessions, fiber.Map{"Title": "Login"}))
}

// HandleLogin authenticates a user. Browser clients get a session and a
// redirect; JSON clients additionally get a bearer token for the API.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Failed login!")
		return c.Redirect("/login")
	}
	if err := h.validate.Struct(req); err != nil {
		if wantsJSON(c) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email and password are required"})
		}
		addFlash(c, h.sessions, "error", "Failed login!")
		return c.Redirect("/login")
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if wantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication failed"})
		}
		addFlash(c, h.sessions, "error", "Failed login!")
		return c.Redirect("/login")
	}

	if err := h.establishSession(c, user.ID); err != nil {
		return err
	}

	if wantsJSON(c) {
		token, err := h.authService.IssueToken(user)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Login successful", "token": token, "user": user})
	}
	addFlash(c, h.sessions, "success", "You are now logged in!")
	return c.Redirect("/")
}

// HandleLogout terminates the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err == nil {
		if destroyErr := sess.Destroy(); destroyErr != nil {
			log.Printf("Failed to destroy session: %v", destroyErr)
		}
	}
	addFlash(c, h.sessions, "success", "You are logged out!")
	return c.Redirect("/")
}

// AccountRequest represents the profile form.
type AccountRequest struct {
	Name  string `form:"name" validate:"required,min=2,max=100"`
	Email string `form:"email" validate:"required,email"`
}

// HandleAccountForm renders the profile page.
func (h *AuthHandler) HandleAccountForm(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	user, err := h.authService.GetUser(userID)
	if err != nil {
		return err
	}
	return c.Render("account", viewData(c, h.sessions, fiber.Map{"Title": "Edit Your Account", "User": user}))
}

// HandleAccountUpdate changes the user's profile fields.
func (h *AuthHandler) HandleAccountUpdate(c *fiber.Ctx) error {
	var req AccountRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Invalid profile form")
		return c.Redirect("/account")
	}
	if err := h.validate.Struct(req); err != nil {
		addFlash(c, h.sessions, "error", validationMessage(err))
		return c.Redirect("/account")
	}

	userID := c.Locals("user_id").(string)
	if _, err := h.authService.UpdateAccount(userID, req.Name, req.Email); err != nil {
		return err
	}
	addFlash(c, h.sessions, "success", "The profile has been updated!")
	return c.Redirect("/account")
}

// ForgotRequest represents the reset-request form.
type ForgotRequest struct {
	Email string `form:"email" validate:"required,email"`
}

// HandleForgot issues a reset token and emails the reset link. The outcome
// message discloses whether the account exists, preserved as observed
// behavior.
func (h *AuthHandler) HandleForgot(c *fiber.Ctx) error {
	var req ForgotRequest
	if err := c.BodyParser(&req); err == nil {
		err = h.validate.Struct(req)
		if err != nil {
			addFlash(c, h.sessions, "error", "A valid email is required")
			return c.Redirect("/login")
		}
	} else {
		addFlash(c, h.sessions, "error", "A valid email is required")
		return c.Redirect("/login")
	}

	err := h.authService.Forgot(req.Email, c.Hostname())
	switch {
	case errors.Is(err, services.ErrNoAccount):
		addFlash(c, h.sessions, "error", "No account with that email exists")
	case err != nil:
		return err
	default:
		addFlash(c, h.sessions, "success", "You have been emailed a password reset link.")
	}
	return c.Redirect("/login")
}

// ResetRequest represents the new-password form.
type ResetRequest struct {
	Password        string `form:"password" validate:"required,min=6"`
	PasswordConfirm string `form:"password-confirm" validate:"required"`
}

// HandleResetForm shows the reset form when the token is valid.
func (h *AuthHandler) HandleResetForm(c *fiber.Ctx) error {
	token := c.Params("token")
	if _, err := h.authService.ValidateResetToken(token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			addFlash(c, h.sessions, "error", "Password reset token is invalid or expired")
			return c.Redirect("/login")
		}
		return err
	}
	return c.Render("reset", viewData(c, h.sessions, fiber.Map{"Title": "Reset your password", "Token": token}))
}

// HandleReset applies the new password. The token is re-validated here:
// requests are stateless, so the earlier form render proves nothing.
func (h *AuthHandler) HandleReset(c *fiber.Ctx) error {
	token := c.Params("token")

	var req ResetRequest
	if err := c.BodyParser(&req); err != nil || h.validate.Struct(req) != nil {
		addFlash(c, h.sessions, "error", "A password of at least 6 characters is required")
		return c.RedirectBack("/login")
	}
	if req.Password != req.PasswordConfirm {
		addFlash(c, h.sessions, "error", "Passwords do not match!")
		return c.RedirectBack("/login")
	}

	user, err := h.authService.ResetPassword(token, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			addFlash(c, h.sessions, "error", "Password reset token is invalid or expired")
			return c.Redirect("/login")
		}
		return err
	}

	// Auto-login after a successful reset
	if err := h.establishSession(c, user.ID); err != nil {
		return err
	}
	addFlash(c, h.sessions, "success", "Nice! Your password has been reset. You are now logged in.")
	return c.Redirect("/")
}

// establishSession binds the user to a fresh session.
func (h *AuthHandler) establishSession(c *fiber.Ctx, userID string) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	sess.Set(middleware.SessionUserKey, userID)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// validationMessage flattens validator errors into a single flash message.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag())
	}
	return "Validation failed"
}
