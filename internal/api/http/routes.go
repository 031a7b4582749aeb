package httpapi

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/widget"
)

var validate = validator.New()

// RegisterRoutes wires the widget page and its JSON actions into the Fiber app.
// Fetch failures are part of the returned view, never an HTTP error.
func RegisterRoutes(app *fiber.App, ctrl *widget.Controller) {
	app.Get("/", func(c *fiber.Ctx) error {
		return renderPage(c, ctrl.View())
	})

	v1 := app.Group("/api/v1/widget")

	v1.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(ctrl.View())
	})

	v1.Put("/input", func(c *fiber.Ctx) error {
		var req inputRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(ctrl.SetInput(req.Text))
	})

	// Enter in the search box. The page sends the box content along; API
	// clients may rely on the text stored by PUT /input instead.
	v1.Post("/submit", func(c *fiber.Ctx) error {
		if len(c.Body()) > 0 {
			var req inputRequest
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			ctrl.SetInput(req.Text)
		}
		view, _ := ctrl.SubmitInput(c.UserContext())
		return respond(c, view)
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.City = strings.TrimSpace(req.City)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return respond(c, ctrl.Search(c.UserContext(), req.City))
	})

	v1.Post("/recent/:index", func(c *fiber.Ctx) error {
		idx, err := c.ParamsInt("index")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "index must be a number")
		}
		view, err := ctrl.SelectRecent(c.UserContext(), idx)
		if err != nil {
			if errors.Is(err, widget.ErrNoSuchRecent) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return err
		}
		return respond(c, view)
	})

	v1.Post("/unit/toggle", func(c *fiber.Ctx) error {
		return respond(c, ctrl.ToggleUnit(c.UserContext()))
	})
}

// inputRequest carries keystrokes of the search box.
type inputRequest struct {
	Text string `json:"text" form:"text" validate:"max=100"`
}

// searchRequest names the city to look up.
type searchRequest struct {
	City string `json:"city" form:"city" validate:"required,max=100"`
}

// respond answers form posts from the page with a redirect back to it and
// everything else with the view as JSON.
func respond(c *fiber.Ctx, view widget.View) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.JSON(view)
}
