package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"

	"github.com/PrabuPro/restaurant-web-app/internal/flash"
	"github.com/PrabuPro/restaurant-web-app/internal/middleware"
)

// NewViewEngine builds the template engine the pages render through.
func NewViewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	engine.AddFunc("contains", func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	})
	return engine
}

// viewData merges per-page fields with pending flash messages and the
// session user, for the navigation and message blocks every page shares.
func viewData(c *fiber.Ctx, sessions *session.Store, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	sess, err := sessions.Get(c)
	if err != nil {
		return data
	}
	// Read the user before saving: Save releases the session instance.
	if id, ok := sess.Get(middleware.SessionUserKey).(string); ok && id != "" {
		data["UserID"] = id
	}
	if msgs := flash.Take(sess); len(msgs) > 0 {
		data["Flashes"] = msgs
		if saveErr := sess.Save(); saveErr != nil {
			log.Printf("Failed to save session: %v", saveErr)
		}
	}
	return data
}

// addFlash records a one-shot message for the next rendered page.
func addFlash(c *fiber.Ctx, sessions *session.Store, kind, text string) {
	sess, err := sessions.Get(c)
	if err != nil {
		log.Printf("Failed to get session: %v", err)
		return
	}
	flash.Add(sess, kind, text)
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}

// wantsJSON reports whether the client asked for a JSON response rather
// than a rendered page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts("text/html", "application/json") == "application/json"
}
