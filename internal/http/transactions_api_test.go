package http_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestTransactionFlowEndToEnd(t *testing.T) {
	app, db := newTestApp(t)

	// 2 × 1000 + 900 + 1500 = 4400
	resp, body := doJSON(t, app, fiber.MethodPost, "/transactions", createPayload(4400))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create: want 201, got %d body=%v", resp.StatusCode, body)
	}
	if body["status"] != "PENDING" {
		t.Fatalf("want PENDING, got %v", body["status"])
	}
	ref, _ := body["reference"].(string)
	if !regexp.MustCompile(`^REF-[A-F0-9]{6}$`).MatchString(ref) {
		t.Fatalf("bad reference %q", ref)
	}
	txID, _ := body["id"].(string)
	if txID == "" {
		t.Fatal("no transaction id")
	}

	// Approve: p1 stock 2 → 0.
	resp, body = doJSON(t, app, fiber.MethodPatch, "/transactions/"+txID, map[string]any{
		"status":       "approved",
		"provider":     "WOMPI",
		"providerTxId": "wompi_123",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("approve: want 200, got %d body=%v", resp.StatusCode, body)
	}
	if body["status"] != "APPROVED" {
		t.Fatalf("want APPROVED, got %v", body["status"])
	}
	var stock int64
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id='p1'`); err != nil {
		t.Fatal(err)
	}
	if stock != 0 {
		t.Fatalf("want stock 0, got %d", stock)
	}

	// Approving again stays APPROVED and never decrements twice.
	resp, body = doJSON(t, app, fiber.MethodPatch, "/transactions/"+txID, map[string]any{
		"status": "APPROVED",
	})
	if resp.StatusCode != fiber.StatusOK || body["status"] != "APPROVED" {
		t.Fatalf("re-approve: got %d %v", resp.StatusCode, body)
	}
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id='p1'`); err != nil {
		t.Fatal(err)
	}
	if stock != 0 {
		t.Fatalf("stock decremented twice: %d", stock)
	}
}

func TestCreateTransactionErrorMapping(t *testing.T) {
	app, _ := newTestApp(t)

	// Tampered total → 400
	resp, body := doJSON(t, app, fiber.MethodPost, "/transactions", createPayload(9999))
	if resp.StatusCode != fiber.StatusBadRequest || body["message"] != "Amount mismatch" {
		t.Fatalf("want 400 amount mismatch, got %d %v", resp.StatusCode, body)
	}
	if body["expected"] != float64(4400) || body["actual"] != float64(9999) {
		t.Fatalf("wrong mismatch payload: %v", body)
	}

	// Unknown product → 404
	payload := createPayload(4400)
	payload["items"] = []map[string]any{{
		"productId": "ghost", "name": "X", "priceCents": 1000, "quantity": 2,
	}}
	resp, body = doJSON(t, app, fiber.MethodPost, "/transactions", payload)
	if resp.StatusCode != fiber.StatusNotFound || body["message"] != "Product not found" {
		t.Fatalf("want 404 product not found, got %d %v", resp.StatusCode, body)
	}

	// Requested > stock → 409
	payload = createPayload(3*1000 + 900 + 1500)
	payload["items"] = []map[string]any{{
		"productId": "p1", "name": "Producto Uno", "priceCents": 1000, "quantity": 3,
	}}
	resp, body = doJSON(t, app, fiber.MethodPost, "/transactions", payload)
	if resp.StatusCode != fiber.StatusConflict || body["message"] != "Insufficient stock" {
		t.Fatalf("want 409 insufficient stock, got %d %v", resp.StatusCode, body)
	}

	// Structurally invalid → 400 with details
	resp, body = doJSON(t, app, fiber.MethodPost, "/transactions", map[string]any{"items": []any{}})
	if resp.StatusCode != fiber.StatusBadRequest || body["message"] != "Invalid transaction payload" {
		t.Fatalf("want 400 invalid payload, got %d %v", resp.StatusCode, body)
	}
	if details, ok := body["details"].([]any); !ok || len(details) == 0 {
		t.Fatalf("details missing: %v", body)
	}
}

func TestPatchTransactionErrorMapping(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/transactions", createPayload(4400))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create failed: %d %v", resp.StatusCode, body)
	}
	txID, _ := body["id"].(string)

	// Empty payload → 400, storage untouched
	resp, body = doJSON(t, app, fiber.MethodPatch, "/transactions/"+txID, map[string]any{})
	if resp.StatusCode != fiber.StatusBadRequest || body["message"] != "No fields provided to update" {
		t.Fatalf("want 400 nothing to update, got %d %v", resp.StatusCode, body)
	}

	// Unknown status → 400
	resp, body = doJSON(t, app, fiber.MethodPatch, "/transactions/"+txID, map[string]any{"status": "SHIPPED"})
	if resp.StatusCode != fiber.StatusBadRequest || body["message"] != "Invalid transaction status" {
		t.Fatalf("want 400 invalid status, got %d %v", resp.StatusCode, body)
	}

	// Unknown transaction → 404
	resp, body = doJSON(t, app, fiber.MethodPatch, "/transactions/does-not-exist", map[string]any{"status": "APPROVED"})
	if resp.StatusCode != fiber.StatusNotFound || body["message"] != "Transaction not found" {
		t.Fatalf("want 404, got %d %v", resp.StatusCode, body)
	}
}

func TestListTransactions(t *testing.T) {
	app, _ := newTestApp(t)

	if resp, body := doJSON(t, app, fiber.MethodPost, "/transactions", createPayload(4400)); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create failed: %d %v", resp.StatusCode, body)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/transactions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("not an array: %v body=%s", err, raw)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	row := rows[0]
	customer, _ := row["customer"].(map[string]any)
	if customer["fullName"] != "Ada Lovelace" {
		t.Fatalf("customer missing: %v", row)
	}
	items, _ := row["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items missing: %v", row)
	}
	if row["deliveryFeeCents"] != float64(1500) {
		t.Fatalf("delivery fee missing: %v", row)
	}
}
