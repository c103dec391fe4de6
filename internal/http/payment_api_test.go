package http_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestWompiDecision(t *testing.T) {
	app, _ := newTestApp(t)

	// An explicit hint wins.
	resp, body := doJSON(t, app, fiber.MethodPost, "/wompi", map[string]any{
		"amountCents":  4400,
		"currency":     "USD",
		"reference":    "REF-ABC123",
		"decisionHint": "DECLINED",
	})
	if resp.StatusCode != fiber.StatusOK || body["status"] != "DECLINED" {
		t.Fatalf("hint ignored: %d %v", resp.StatusCode, body)
	}
	if id, _ := body["id"].(string); !strings.HasPrefix(id, "wompi_") {
		t.Fatalf("bad provider id %v", body["id"])
	}

	// Without a hint the card's last digit decides: even approves.
	resp, body = doJSON(t, app, fiber.MethodPost, "/wompi", map[string]any{
		"amountCents": 4400,
		"card":        map[string]any{"number": "4242424242424242"},
	})
	if resp.StatusCode != fiber.StatusOK || body["status"] != "APPROVED" {
		t.Fatalf("even card should approve: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, fiber.MethodPost, "/wompi", map[string]any{
		"amountCents": 4400,
		"card":        map[string]any{"number": "4242424242424241"},
	})
	if resp.StatusCode != fiber.StatusOK || body["status"] != "DECLINED" {
		t.Fatalf("odd card should decline: %d %v", resp.StatusCode, body)
	}
}

func TestStatusPage(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/transactions", createPayload(4400))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create failed: %d %v", resp.StatusCode, body)
	}
	ref, _ := body["reference"].(string)

	page, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/status/"+ref, nil))
	if err != nil {
		t.Fatal(err)
	}
	if page.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", page.StatusCode)
	}
	html, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(html), ref) || !strings.Contains(string(html), "PENDING") {
		t.Fatalf("status page missing data: %s", html)
	}

	// Unknown but well-formed reference → 404.
	page, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/status/REF-0AB12C", nil))
	if err != nil {
		t.Fatal(err)
	}
	if page.StatusCode != fiber.StatusNotFound {
		t.Fatalf("want 404, got %d", page.StatusCode)
	}

	// Malformed reference → 404 before any lookup.
	page, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/status/REF-ZZZZZZ", nil))
	if err != nil {
		t.Fatal(err)
	}
	if page.StatusCode != fiber.StatusNotFound {
		t.Fatalf("want 404, got %d", page.StatusCode)
	}
}
