package like

import (
	"github.com/jalal1808/Postify-backend/internal/auth"
	"github.com/jalal1808/Postify-backend/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts like endpoints on a group carrying :postID,
// e.g. /posts/:postID/like.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		l, err := svc.Add(c.Context(), auth.PrincipalID(c), c.Params("postID"))
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(l)
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.Remove(c.Context(), auth.PrincipalID(c), c.Params("postID"))
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
