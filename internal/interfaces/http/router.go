package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/application/tenant"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver         tenantResolver
	AdminAuth        adminAuthenticator
	Scopes           scopeCalculator
	Customers        customerVerifier
	StoreUC          storeService
	TenantSettingsUC tenantSettingsService
	Metrics          *metrics.Gate
	InstanceID       string
	ServiceName      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")
	tenantHandler := NewTenantHandler()

	// Público: la clave va en la ruta (UUID, código de tienda o slug).
	byPath := ResolveTenant(deps.Resolver, tenant.Options{Required: true})
	public := api.Group("/t/:" + ParamTenantKey)
	public.Get("/info", byPath, tenantHandler.Info)
	public.Get("/customer/me", byPath, RequireCustomer(deps.Customers), tenantHandler.CustomerMe)

	// Punto de entrada por código de tienda (QR en el local).
	api.Get("/stores/:"+ParamTenantKey, byPath, tenantHandler.Info)

	// Dashboard: tenant por x-tenant-id o subdominio, token de Firebase.
	admin := api.Group("/admin",
		ResolveTenant(deps.Resolver, tenant.Options{Required: true}),
		RequireAdmin(deps.AdminAuth, deps.Scopes),
	)
	admin.Get("/me", tenantHandler.AdminMe)

	storeHandler := NewStoreHandler(deps.StoreUC, deps.InstanceID)
	admin.Patch("/stores/:storeId/status", RequirePermission(auth.PermManageSettings), storeHandler.UpdateStatus)
	admin.Post("/stores/:storeId/code", RequirePermission(auth.PermManageSettings), storeHandler.RotateCode)
	admin.Post("/cache/flush", RequirePermission(auth.PermManageSettings), storeHandler.FlushCache)

	settingsHandler := NewTenantSettingsHandler(deps.TenantSettingsUC)
	admin.Put("/line-channel", RequirePermission(auth.PermManageSettings), settingsHandler.UpdateLineChannel)
}
