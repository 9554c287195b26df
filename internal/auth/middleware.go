package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalRunnerID is the fiber locals key holding the authenticated runner.
const LocalRunnerID = "runner_id"

type Claims struct {
	RunnerID string `json:"runner_id"`
	jwt.RegisteredClaims
}

// JWTMiddleware validates bearer tokens and stores the runner id in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid || claims.RunnerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		c.Locals(LocalRunnerID, claims.RunnerID)
		return c.Next()
	}
}

// RunnerID returns the runner stored by JWTMiddleware, or "".
func RunnerID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRunnerID).(string)
	return id
}

// SignToken issues an HS256 token for runnerID valid for ttl.
func SignToken(secret, runnerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RunnerID: runnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
