package server

import (
	"errors"
	"time"

	"github.com/jalal1808/Postify-backend/internal/auth"
	"github.com/jalal1808/Postify-backend/internal/comment"
	"github.com/jalal1808/Postify-backend/internal/config"
	"github.com/jalal1808/Postify-backend/internal/like"
	"github.com/jalal1808/Postify-backend/internal/post"
	"github.com/jalal1808/Postify-backend/internal/storage"
	"github.com/jalal1808/Postify-backend/internal/stream"
	"github.com/jalal1808/Postify-backend/internal/suggest"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

// errorHandler renders every rejected request as {"reason": "..."} with
// the status carried by the fiber error.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"reason": err.Error()})
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	suggestSvc := suggest.NewService(
		s.Cfg.GeminiAPIKey,
		s.Cfg.GeminiBaseURL,
		time.Duration(s.Cfg.SuggestTimeoutSec)*time.Second,
		time.Duration(s.Cfg.SuggestCacheTTLMin)*time.Minute,
		s.Redis,
	)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	post.RegisterRoutes(s.App.Group("/posts"), post.NewService(s.DB), jwtMiddleware)
	comment.RegisterRoutes(s.App.Group("/posts/:postID/comments"), comment.NewService(s.DB, s.Stream), jwtMiddleware)
	like.RegisterRoutes(s.App.Group("/posts/:postID/like"), like.NewService(s.DB, s.Stream), jwtMiddleware)
	suggest.RegisterRoutes(s.App.Group("/suggest"), suggestSvc, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
