package server

import (
	"time"

	"backend-runtracker/internal/auth"
	"backend-runtracker/internal/config"
	"backend-runtracker/internal/db"
	"backend-runtracker/internal/logger"
	"backend-runtracker/internal/run"
	"backend-runtracker/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Runs   *run.Service
	Log    *logger.Logger
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(requestLogger(log.WithComponent("http")))

	hub := stream.NewHub(redisClient, log)

	// A nil pool must stay a nil interface so the run store disables itself.
	var q db.Querier
	if pg != nil {
		q = pg
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pg,
		Redis:  redisClient,
		Stream: hub,
		Runs:   run.NewService(q, hub, cfg.Engine(), log),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	limiter := rateLimit(s.Cfg.RateLimitRPS, s.Cfg.RateLimitBurst, s.Log.WithComponent("ratelimit"))

	run.RegisterRoutes(s.App.Group("/runs", limiter), s.Runs, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return err
	}
}
