package middleware

import (
	"os"

	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// ProfileClaims is what the external identity provider puts in the token.
// This service never checks credentials itself; it only trusts the signed
// profile.
type ProfileClaims struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	PublicID    string `json:"public_id"`
	jwt.RegisteredClaims
}

func secretKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	return []byte("secret")
}

// Verify parses the jwt cookie into a UserProfile and gates the route on the
// allowed roles. No roles means any authenticated profile passes.
func Verify(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies("jwt")
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		claims := &ProfileClaims{}
		token, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (interface{}, error) {
			return secretKey(), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		profile := Models.UserProfile{
			ID:          claims.Subject,
			PublicID:    claims.PublicID,
			DisplayName: claims.DisplayName,
			Role:        claims.Role,
		}
		c.Locals("user", profile)

		if len(roles) == 0 {
			return c.Next()
		}
		for _, role := range roles {
			if profile.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions to access this resource",
		})
	}
}
