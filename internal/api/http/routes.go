package httpapi

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resolver is the part of sunlight.Service the handlers need.
type Resolver interface {
	Resolve(ctx context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error)
	Get(ctx context.Context, id string) (*sunlight.HistoricalInformation, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Resolver) {
	v1 := app.Group("/api/v1")

	v1.Post("/historical-informations", func(c *fiber.Ctx) error {
		var req historicalRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		return resolve(c, service, req, fiber.StatusCreated)
	})

	v1.Get("/historical-informations", func(c *fiber.Ctx) error {
		var req historicalRequest
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
		}
		return resolve(c, service, req, fiber.StatusOK)
	})

	v1.Get("/historical-informations/:id", func(c *fiber.Ctx) error {
		rec, err := service.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rec)
	})
}

// RegisterMetrics exposes a Prometheus handler at /metrics.
func RegisterMetrics(app *fiber.App, h http.Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(h))
}

// historicalRequest holds the four lookup fields from a body or query string.
type historicalRequest struct {
	Latitude  string `json:"latitude" form:"latitude" query:"latitude" validate:"required"`
	Longitude string `json:"longitude" form:"longitude" query:"longitude" validate:"required"`
	StartDate string `json:"start_date" form:"start_date" query:"start_date" validate:"required"`
	EndDate   string `json:"end_date" form:"end_date" query:"end_date" validate:"required"`
}

func (r historicalRequest) query() (sunlight.Query, error) {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return sunlight.Query{}, err
		}
		ve := &sunlight.ValidationError{}
		for _, fe := range verrs {
			ve.Violations = append(ve.Violations, sunlight.Violation{Field: fe.Field(), Message: "can't be blank"})
		}
		return sunlight.Query{}, ve
	}
	return sunlight.ParseQuery(r.Latitude, r.Longitude, r.StartDate, r.EndDate)
}

func resolve(c *fiber.Ctx, service Resolver, req historicalRequest, status int) error {
	q, err := req.query()
	if err != nil {
		return respondError(c, err)
	}

	rec, err := service.Resolve(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(rec)
}

// respondError renders validation failures with their violations and hands
// everything else to the app ErrorHandler as a *fiber.Error.
func respondError(c *fiber.Ctx, err error) error {
	var ve *sunlight.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   true,
			"message": ve.Error(),
			"errors":  ve.Violations,
		})
	}

	switch {
	case errors.Is(err, sunlight.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "historical information not found")
	case errors.Is(err, sunlight.ErrNetwork):
		return fiber.NewError(fiber.StatusGatewayTimeout, "sunrise/sunset provider unreachable")
	case errors.Is(err, sunlight.ErrUpstream), errors.Is(err, sunlight.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, "sunrise/sunset provider returned an invalid response")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve historical information")
	}
}

// ErrorHandler is the centralized Fiber error response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
