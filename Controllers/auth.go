package Controllers

import (
	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
)

// User returns the profile behind the current token. Runs behind
// middleware.Verify, which already rejected missing or invalid tokens.
// GET /api/user
func User(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(Models.UserProfile)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not Logged In.",
		})
	}
	return c.JSON(user)
}

// ValidateToken answers whether the presented token is still good.
// GET /api/validate-token
func ValidateToken(c *fiber.Ctx) error {
	_, ok := c.Locals("user").(Models.UserProfile)
	return c.JSON(fiber.Map{"valid": ok})
}
