package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/application/tenant"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

// Locals keys del gate en Fiber.
const (
	LocalRequestContext   = "request_context"
	LocalStrategy         = "tenant_strategy"
	LocalCustomerIdentity = "customer_identity"
)

// Cabeceras y parámetros de identificación.
const (
	HeaderTenantID  = "x-tenant-id"
	HeaderStoreID   = "x-store-id"
	QueryStoreID    = "storeId"
	ParamTenantKey  = "tenantKey"
	HeaderAuthorize = "Authorization"
)

// ExtractIdentifiers lee una sola vez todos los identificadores de la petición.
func ExtractIdentifiers(c *fiber.Ctx) tenant.RequestIdentifiers {
	storeID := c.Get(HeaderStoreID)
	if strings.TrimSpace(storeID) == "" {
		storeID = c.Query(QueryStoreID)
	}
	return tenant.RequestIdentifiers{
		PathKey:        c.Params(ParamTenantKey),
		HeaderTenantID: c.Get(HeaderTenantID),
		Host:           c.Hostname(),
		StoreID:        storeID,
		BearerToken:    bearerToken(c.Get(HeaderAuthorize)),
	}
}

// bearerToken "" si la cabecera no es "Bearer <token>".
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetRequestContext nunca devuelve nil: sin resolución previa es un contexto vacío.
func GetRequestContext(c *fiber.Ctx) *entity.RequestContext {
	if rc, ok := c.Locals(LocalRequestContext).(*entity.RequestContext); ok && rc != nil {
		return rc
	}
	return &entity.RequestContext{}
}

func setRequestContext(c *fiber.Ctx, rc *entity.RequestContext) {
	c.Locals(LocalRequestContext, rc)
}

// GetStrategy estrategia con la que se resolvió el tenant.
func GetStrategy(c *fiber.Ctx) tenant.Strategy {
	s, _ := c.Locals(LocalStrategy).(tenant.Strategy)
	if s == "" {
		return tenant.StrategyNone
	}
	return s
}

// GetCustomerIdentity identidad del cliente (después de RequireCustomer).
func GetCustomerIdentity(c *fiber.Ctx) *auth.CustomerIdentity {
	id, _ := c.Locals(LocalCustomerIdentity).(*auth.CustomerIdentity)
	return id
}
