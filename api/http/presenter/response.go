package presenter

import "github.com/gofiber/fiber/v2"

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

// Detail writes the {"detail": ...} error shape used by the auth endpoints.
func Detail(c *fiber.Ctx, status int, detail string) error {
	return JSON(c, status, ErrorResponse{Detail: detail})
}

// Error writes the {"error": ...} shape used by logout and the OAuth callback.
func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, fiber.Map{"error": message})
}
