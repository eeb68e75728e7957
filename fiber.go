package auth

import (
	"github.com/gofiber/fiber/v2"
)

// UserFromFiber extracts the user a guard stored in the locals when the
// router is mounted on a fiber app. Handlers written against *fiber.Ctx
// directly use this instead of UserFromRouter.
func UserFromFiber(c *fiber.Ctx, key string) (*User, bool) {
	if key == "" {
		key = "user"
	}

	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}

	user, ok := raw.(*User)
	return user, ok
}

// FiberErrorHandler renders this package's structured errors as JSON for
// fiber apps that bypass the router abstraction.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	status, body := errResponse(err)
	return c.Status(status).JSON(body)
}
