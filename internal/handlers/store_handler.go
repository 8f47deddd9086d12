package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/PrabuPro/restaurant-web-app/internal/images"
	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

// StoreHandler handles the store pages and the JSON API.
type StoreHandler struct {
	storeService *services.StoreService
	photos       *images.Processor
	sessions     *session.Store
	validate     *validator.Validate
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(storeService *services.StoreService, photos *images.Processor, sessions *session.Store) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		photos:       photos,
		sessions:     sessions,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the store routes with the Fiber app.
func (h *StoreHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/", h.HandleList)
	router.Get("/stores", h.HandleList)
	router.Get("/stores/page/:page", h.HandleList)

	router.Get("/add", requireAuth, h.HandleAddForm)
	router.Post("/add", requireAuth, h.HandleCreate)
	router.Post("/add/:id", requireAuth, h.HandleUpdate)
	router.Get("/stores/:id/edit", requireAuth, h.HandleEditForm)
	router.Get("/store/:slug", h.HandleDetail)

	router.Get("/tags", h.HandleTags)
	router.Get("/tags/:tag", h.HandleTags)
	router.Get("/map", h.HandleMap)
	router.Get("/hearts", requireAuth, h.HandleHearts)
	router.Get("/top", h.HandleTop)

	router.Get("/api/search", h.HandleSearch)
	router.Get("/api/stores/near", h.HandleNear)
	router.Post("/api/stores/:id/heart", requireAuth, h.HandleHeartToggle)
}

// HandleList renders a page of stores, newest first. A non-numeric or
// non-positive page parameter means page 1; a page past the end redirects
// to the last page instead of rendering an empty one.
func (h *StoreHandler) HandleList(c *fiber.Ctx) error {
	page := 1
	if raw := c.Params("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	result, err := h.storeService.ListPage(page)
	if err != nil {
		return err
	}
	if result.OutOfRange {
		addFlash(c, h.sessions, "info",
			fmt.Sprintf("Hey! You asked for page %d. But that doesn't exist. So I put you on page %d", page, result.Pages))
		return c.Redirect(fmt.Sprintf("/stores/page/%d", result.Pages))
	}

	return c.Render("stores", viewData(c, h.sessions, fiber.Map{
		"Title":  "Stores",
		"Stores": result.Stores,
		"Page":   result.Page,
		"Pages":  result.Pages,
		"Count":  result.Count,
	}))
}

// StoreRequest represents the create/edit store form.
type StoreRequest struct {
	Name        string   `form:"name" validate:"required,min=3,max=100"`
	Description string   `form:"description" validate:"omitempty,max=1000"`
	Lng         float64  `form:"lng" validate:"omitempty,longitude"`
	Lat         float64  `form:"lat" validate:"omitempty,latitude"`
	Tags        []string `form:"tags"`
}

func (r *StoreRequest) toModel() *models.Store {
	tags := make([]models.Tag, 0, len(r.Tags))
	for _, name := range r.Tags {
		tags = append(tags, models.Tag{Name: name})
	}
	return &models.Store{
		Name:        r.Name,
		Description: r.Description,
		Lng:         r.Lng,
		Lat:         r.Lat,
		Tags:        tags,
	}
}

// HandleAddForm renders the empty store form.
func (h *StoreHandler) HandleAddForm(c *fiber.Ctx) error {
	return c.Render("editStore", viewData(c, h.sessions, fiber.Map{"Title": "Add Store"}))
}

// HandleCreate creates a store, with an optional photo upload.
func (h *StoreHandler) HandleCreate(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Invalid store form")
		return c.Redirect("/add")
	}
	if err := h.validate.Struct(req); err != nil {
		addFlash(c, h.sessions, "error", validationMessage(err))
		return c.Redirect("/add")
	}

	store := req.toModel()
	photo, err := h.processPhoto(c)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedType) {
			addFlash(c, h.sessions, "error", "That file type isn't allowed")
			return c.Redirect("/add")
		}
		return err
	}
	store.Photo = photo

	authorID := c.Locals("user_id").(string)
	created, err := h.storeService.Create(store, authorID)
	if err != nil {
		return err
	}

	addFlash(c, h.sessions, "success",
		fmt.Sprintf("Successfully created %s. Care to leave a review?", created.Name))
	return c.Redirect("/store/" + created.Slug)
}

// HandleUpdate applies changes to a store, with an optional photo upload.
// Ownership is enforced by the service.
func (h *StoreHandler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")

	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		addFlash(c, h.sessions, "error", "Invalid store form")
		return c.Redirect(fmt.Sprintf("/stores/%s/edit", id))
	}
	if err := h.validate.Struct(req); err != nil {
		addFlash(c, h.sessions, "error", validationMessage(err))
		return c.Redirect(fmt.Sprintf("/stores/%s/edit", id))
	}

	store := req.toModel()
	photo, err := h.processPhoto(c)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedType) {
			addFlash(c, h.sessions, "error", "That file type isn't allowed")
			return c.Redirect(fmt.Sprintf("/stores/%s/edit", id))
		}
		return err
	}
	store.Photo = photo

	userID := c.Locals("user_id").(string)
	updated, err := h.storeService.Update(id, userID, store)
	if err != nil {
		return storeError(err)
	}

	addFlash(c, h.sessions, "success",
		fmt.Sprintf("Successfully updated %s. <a href=\"/store/%s\">View store</a>", updated.Name, updated.Slug))
	return c.Redirect(fmt.Sprintf("/stores/%s/edit", updated.ID))
}

// HandleEditForm renders the edit form, enforcing ownership.
func (h *StoreHandler) HandleEditForm(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	store, err := h.storeService.EditForm(c.Params("id"), userID)
	if err != nil {
		return storeError(err)
	}
	return c.Render("editStore", viewData(c, h.sessions, fiber.Map{
		"Title": "Edit " + store.Name,
		"Store": store,
	}))
}

// HandleDetail renders the store detail page.
func (h *StoreHandler) HandleDetail(c *fiber.Ctx) error {
	store, err := h.storeService.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return c.Render("store", viewData(c, h.sessions, fiber.Map{
		"Title": store.Name,
		"Store": store,
	}))
}

// HandleTags renders the tag browse page. Without a tag parameter it lists
// every store that has at least one tag.
func (h *StoreHandler) HandleTags(c *fiber.Ctx) error {
	result, err := h.storeService.ByTag(c.Params("tag"))
	if err != nil {
		return err
	}
	return c.Render("tag", viewData(c, h.sessions, fiber.Map{
		"Title":  "Tags",
		"Tag":    result.Tag,
		"Tags":   result.Tags,
		"Stores": result.Stores,
	}))
}

// HandleMap renders the map page.
func (h *StoreHandler) HandleMap(c *fiber.Ctx) error {
	return c.Render("map", viewData(c, h.sessions, fiber.Map{"Title": "Map"}))
}

// HandleHearts renders the user's hearted stores.
func (h *StoreHandler) HandleHearts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	stores, err := h.storeService.Hearted(userID)
	if err != nil {
		return err
	}
	return c.Render("stores", viewData(c, h.sessions, fiber.Map{
		"Title":  "Hearted Stores",
		"Stores": stores,
	}))
}

// HandleTop renders the top-rated stores.
func (h *StoreHandler) HandleTop(c *fiber.Ctx) error {
	stores, err := h.storeService.Top()
	if err != nil {
		return err
	}
	return c.Render("topStores", viewData(c, h.sessions, fiber.Map{
		"Title":  "Top Stores!",
		"Stores": stores,
	}))
}

// HandleSearch is the JSON text-search endpoint. No matches yields an empty
// list, not an error.
func (h *StoreHandler) HandleSearch(c *fiber.Ctx) error {
	stores, err := h.storeService.Search(c.Query("q"), services.SearchLimit)
	if err != nil {
		return err
	}
	return c.JSON(stores)
}

// HandleNear is the JSON geospatial endpoint.
func (h *StoreHandler) HandleNear(c *fiber.Ctx) error {
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	if lngErr != nil || latErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "lng and lat query parameters are required",
		})
	}
	stores, err := h.storeService.Near(lng, lat)
	if err != nil {
		return err
	}
	return c.JSON(stores)
}

// HandleHeartToggle flips the store in the user's heart set and returns the
// updated user.
func (h *StoreHandler) HandleHeartToggle(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	user, err := h.storeService.ToggleHeart(userID, c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Store not found"})
		}
		return err
	}
	return c.JSON(user)
}

// processPhoto runs the optional upload through the resize pipeline and
// returns the generated filename. A request without a photo is fine.
func (h *StoreHandler) processPhoto(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return "", nil // no file uploaded, the photo is optional
	}
	return h.photos.Process(fh)
}

// storeError maps service outcomes to HTTP errors for the page flows.
func storeError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.ErrNotFound
	case errors.Is(err, services.ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, "You must own a store in order to edit it!")
	default:
		return err
	}
}
