package server

import (
	"sync"
	"time"

	"backend-runtracker/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

// rateLimit keeps one token bucket per client IP. Buckets idle for longer
// than limiterIdleTTL are swept at most once a minute.
func rateLimit(perSecond float64, burst int, log *logger.Logger) fiber.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*client)
		lastSweep = time.Now()
	)

	return func(c *fiber.Ctx) error {
		if perSecond <= 0 {
			return c.Next()
		}
		ip := c.IP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for key, cl := range clients {
				if now.Sub(cl.lastSeen) > limiterIdleTTL {
					delete(clients, key)
				}
			}
			lastSweep = now
		}
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))}
			clients[ip] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.Allow()
		mu.Unlock()

		if !allowed {
			log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
