package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"tienda/internal/http/handlers"
	applog "tienda/internal/log"
	"tienda/internal/repos"
)

// newTestApp wires the real routes over an in-memory DB. The demo
// seed is kept; a fixed cheap product is added for the flow tests.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.MustExec(`INSERT INTO products(id,name,description,image_url,price_cents,stock) VALUES
	  ('p1','Producto Uno','','https://img.test/p1.jpg',1000,2)`)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong. Please try again.",
			})
		},
	})
	app.Use(requestid.New())
	handlers.Register(app, handlers.NewDeps(db))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func createPayload(amountCents int64) map[string]any {
	return map[string]any{
		"items": []map[string]any{{
			"productId":  "p1",
			"name":       "Producto Uno",
			"priceCents": 1000,
			"quantity":   2,
		}},
		"amountCents":      amountCents,
		"baseFeeCents":     900,
		"deliveryFeeCents": 1500,
		"customer":         map[string]any{"fullName": "Ada Lovelace", "email": "ada@example.com"},
		"delivery":         map[string]any{"addressLine1": "Calle 1 #2-34", "city": "Bogotá"},
		"cardBrand":        "VISA",
		"cardLast4":        "4242",
	}
}
