package http_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestProductsListAndGet(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/products", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	products, ok := body["products"].([]any)
	if !ok || len(products) < 4 { // 3 seeded + p1 fixture
		t.Fatalf("want seeded products, got %v", body)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/products/p1", nil)
	if resp.StatusCode != fiber.StatusOK || body["priceCents"] != float64(1000) {
		t.Fatalf("want p1, got %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/products/nope", nil)
	if resp.StatusCode != fiber.StatusNotFound || body["message"] != "Product not found" {
		t.Fatalf("want 404, got %d %v", resp.StatusCode, body)
	}
}

func TestProductCreate(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/products", map[string]any{
		"name":       "Parlante BT",
		"priceCents": 59900,
		"stock":      3,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("want 201, got %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("no id: %v", body)
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/products/"+id, nil)
	if resp.StatusCode != fiber.StatusOK || body["name"] != "Parlante BT" {
		t.Fatalf("fetch after create failed: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, fiber.MethodPost, "/products", map[string]any{
		"name": "", "priceCents": 0,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400 for invalid product, got %d %v", resp.StatusCode, body)
	}
}
