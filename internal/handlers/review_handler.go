package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

// ReviewHandler handles review submission.
type ReviewHandler struct {
	reviewService *services.ReviewService
	sessions      *session.Store
	validate      *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *services.ReviewService, sessions *session.Store) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		sessions:      sessions,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Post("/reviews/:id", requireAuth, h.HandleAdd)
}

// ReviewRequest represents the review form.
type ReviewRequest struct {
	Rating int    `form:"rating" validate:"required,min=1,max=5"`
	Text   string `form:"text" validate:"required,max=2000"`
}

// HandleAdd attaches a review to the store on behalf of the authenticated
// user and redirects back to the originating page.
func (h *ReviewHandler) HandleAdd(c *fiber.Ctx) error {
	storeID := c.Params("id")

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Invalid review form")
		return c.RedirectBack("/")
	}
	if err := h.validate.Struct(req); err != nil {
		addFlash(c, h.sessions, "error", validationMessage(err))
		return c.RedirectBack("/")
	}

	authorID := c.Locals("user_id").(string)
	if _, err := h.reviewService.Add(storeID, authorID, req.Rating, req.Text); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}

	addFlash(c, h.sessions, "success", "Review saved!")
	return c.RedirectBack("/")
}
