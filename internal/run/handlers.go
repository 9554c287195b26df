package run

import (
	"errors"

	"backend-runtracker/internal/auth"
	"backend-runtracker/internal/engine"
	"backend-runtracker/internal/export"

	"github.com/gofiber/fiber/v2"
)

type fixesRequest struct {
	Fixes []FixInput `json:"fixes"`
	FixInput
}

type tickRequest struct {
	Seconds uint64 `json:"seconds"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		runnerID := auth.RunnerID(c)
		if runnerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "runner required")
		}
		view, err := svc.StartRun(c.Context(), runnerID)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	})

	r.Post("/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req fixesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		inputs := req.Fixes
		if inputs == nil {
			inputs = []FixInput{req.FixInput}
		}
		fixes := make([]engine.Fix, 0, len(inputs))
		for _, in := range inputs {
			if in.Timestamp <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "timestamp required")
			}
			fixes = append(fixes, in.Fix())
		}
		result, err := svc.AddFixes(c.Context(), c.Params("id"), auth.RunnerID(c), fixes)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(result)
	})

	r.Post("/:id/start", authMiddleware, func(c *fiber.Ctx) error {
		view, err := svc.Start(c.Context(), c.Params("id"), auth.RunnerID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		view, err := svc.Pause(c.Context(), c.Params("id"), auth.RunnerID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		view, err := svc.Resume(c.Context(), c.Params("id"), auth.RunnerID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/:id/tick", authMiddleware, func(c *fiber.Ctx) error {
		var req tickRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		view, err := svc.Tick(c.Params("id"), auth.RunnerID(c), req.Seconds)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.Stop(c.Context(), c.Params("id"), auth.RunnerID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Post("/:id/reset", authMiddleware, func(c *fiber.Ctx) error {
		view, err := svc.Reset(c.Context(), c.Params("id"), auth.RunnerID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		view, err := svc.Snapshot(c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Get("/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/:id/track.geojson", func(c *fiber.Ctx) error {
		snap, err := svc.Track(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		body, err := export.GeoJSON(c.Params("id"), snap)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	})

	r.Get("/:id/track.gpx", func(c *fiber.Ctx) error {
		snap, err := svc.Track(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		body, err := export.GPX(c.Params("id"), snap)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(body)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
