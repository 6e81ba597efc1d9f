package middleware

import (
	"Hearth/Models"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// SecretKey signs session tokens. Override with JWT_SECRET in production.
var SecretKey = func() string {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s
	}
	return "secret"
}()

// Verify checks the jwt cookie and loads the member into the request
// context. Pass a required role ("parent") to gate the route, or ""
// to allow any family member.
func Verify(requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get JWT from cookies
		cookie := c.Cookies("jwt")
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		// Parse and validate the token
		token, err := jwt.ParseWithClaims(cookie, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(SecretKey), nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		// Extract claims
		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}

		// Get member from database
		var member Models.Member
		result := Models.DB.Where("id = ?", claims.Issuer).First(&member)
		if result.Error != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Member not found",
			})
		}

		// Store member in context for later use in handlers
		c.Locals("member", member)

		// No specific role required, any authenticated member may pass
		if requiredRole == "" {
			return c.Next()
		}

		if requiredRole == Models.RoleParent && !member.IsParent() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "This action requires a parent account",
			})
		}

		return c.Next()
	}
}
