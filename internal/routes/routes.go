// Package routes wires handlers onto the router. Registration lives
// here so main stays short and the URL surface is visible in one place.
package routes

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/handler/admin"
	"github.com/dukerupert/skadi/internal/handler/storefront"
	"github.com/dukerupert/skadi/internal/handler/webhook"
	"github.com/dukerupert/skadi/internal/router"
)

// Deps holds every handler the route table needs.
type Deps struct {
	StorefrontProducts *storefront.ProductHandler
	Checkout           *storefront.CheckoutHandler
	StripeWebhook      *webhook.StripeHandler

	AdminOrders   *admin.OrderHandler
	AdminProducts *admin.ProductHandler
	AdminTeam     *admin.TeamHandler
	AdminActivity *admin.ActivityHandler
	AdminReports  *admin.ReportHandler

	Metrics http.Handler
}

// Register mounts the full URL surface on r.
func Register(r *router.Router, deps Deps) {
	// Public storefront API
	r.Get("/api/products", deps.StorefrontProducts.List)
	r.Get("/api/products/{id}", deps.StorefrontProducts.Get)
	r.Post("/api/checkout", deps.Checkout.Create)

	// Payment gateway callbacks
	r.Post("/webhooks/stripe", deps.StripeWebhook.HandleWebhook)

	// Back-office API
	r.Get("/admin/api/orders", deps.AdminOrders.List)
	r.Get("/admin/api/orders/{id}", deps.AdminOrders.Get)
	r.Patch("/admin/api/orders/{id}/status", deps.AdminOrders.UpdateStatus)
	r.Delete("/admin/api/orders/{id}", deps.AdminOrders.Delete)

	r.Get("/admin/api/products", deps.AdminProducts.List)
	r.Get("/admin/api/products/{id}", deps.AdminProducts.Get)
	r.Post("/admin/api/products", deps.AdminProducts.Create)
	r.Patch("/admin/api/products/{id}", deps.AdminProducts.Update)
	r.Delete("/admin/api/products/{id}", deps.AdminProducts.Archive)

	r.Get("/admin/api/team", deps.AdminTeam.List)
	r.Post("/admin/api/team", deps.AdminTeam.Create)
	r.Delete("/admin/api/team/{id}", deps.AdminTeam.Deactivate)

	r.Get("/admin/api/activity", deps.AdminActivity.List)
	r.Get("/admin/api/reports/sales", deps.AdminReports.SalesSummary)

	// Operational endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics)
	}
}
