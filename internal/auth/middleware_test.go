package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/private", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		if RunnerID(c) == "" {
			return fiber.NewError(fiber.StatusUnauthorized)
		}
		return c.SendString(RunnerID(c))
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp()

	// missing token
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}

	// valid token
	token, err := SignToken("secret", "runner-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok")
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	app := newApp()

	wrongSecret, _ := SignToken("other", "runner-1", time.Minute)
	expired, _ := SignToken("secret", "runner-1", -time.Minute)
	noRunner, _ := SignToken("secret", "", time.Minute)

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + wrongSecret,
		"expired":      "Bearer " + expired,
		"no runner":    "Bearer " + noRunner,
		"bad scheme":   "Basic abc",
		"garbage":      "Bearer not-a-token",
	} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", header)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %d", name, resp.StatusCode)
		}
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("bearer abc") != "abc" {
		t.Fatalf("expected case-insensitive scheme")
	}
	if bearerFromHeader("abc") != "" {
		t.Fatalf("expected empty token")
	}
}
