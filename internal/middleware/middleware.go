package middleware

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/internal/api/presenters"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		HouseholdMiddleware() fiber.Handler
	}

	middleware struct{}
)

func NewMiddleware() Middleware {
	return &middleware{}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Household-ID",
	})
}

// HouseholdMiddleware plumbs the already-resolved household id through the
// request, mirroring how an auth layer would populate user identity.
func (m *middleware) HouseholdMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		householdID := c.Get("X-Household-ID")
		if _, err := uuid.Parse(householdID); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessRequest, domain.ErrMissingHouseholdID)
		}
		c.Locals("household_id", householdID)
		return c.Next()
	}
}
