package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"tienda/internal/repos"
	"tienda/internal/services"
)

type Deps struct {
	ProductHandler     *ProductHandler
	TransactionHandler *TransactionHandler
	PaymentHandler     *PaymentHandler
	StatusHandler      *StatusHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	prodRepo := repos.NewProductRepo(db)
	txRepo := repos.NewTransactionRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	txSvc := services.NewTransactionService(txRepo, prodRepo)

	return &Deps{
		ProductHandler:     &ProductHandler{Catalog: catalogSvc},
		TransactionHandler: &TransactionHandler{Tx: txSvc},
		PaymentHandler:     &PaymentHandler{},
		StatusHandler:      &StatusHandler{Tx: txSvc},
	}
}

// Register mounts every route on the app; main and the HTTP tests
// share the same wiring.
func Register(app *fiber.App, d *Deps) {
	app.Get("/products", d.ProductHandler.List)
	app.Post("/products", d.ProductHandler.Create)
	app.Get("/products/:id", d.ProductHandler.Get)

	app.Get("/transactions", d.TransactionHandler.List)
	app.Post("/transactions", d.TransactionHandler.Create)
	app.Patch("/transactions/:id", d.TransactionHandler.Update)

	app.Post("/wompi", d.PaymentHandler.Charge)
	app.Get("/status/:reference", d.StatusHandler.Show)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}
