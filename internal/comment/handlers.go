package comment

import (
	"github.com/jalal1808/Postify-backend/internal/auth"
	"github.com/jalal1808/Postify-backend/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the comment endpoints on a group that carries
// the :postID parameter, e.g. /posts/:postID/comments.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		comments, err := svc.List(c.Context(), c.Params("postID"))
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.JSON(comments)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		created, err := svc.Create(c.Context(), auth.PrincipalID(c), c.Params("postID"), body.Content)
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Delete("/:commentID", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.Delete(c.Context(), auth.PrincipalID(c), c.Params("postID"), c.Params("commentID"))
		if err != nil {
			return fiber.NewError(apperr.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
