package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/domain"
)

// TenantHandler endpoints públicos y de sesión sobre el contexto ya resuelto.
type TenantHandler struct{}

// NewTenantHandler construye el handler.
func NewTenantHandler() *TenantHandler {
	return &TenantHandler{}
}

// Info godoc
// @Summary      Tenant resuelto
// @Tags         tenant
// @Produce      json
// @Param        tenantKey  path  string  true  "UUID, código de tienda o slug"
// @Success      200  {object}  dto.TenantInfoResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/t/{tenantKey}/info [get]
func (h *TenantHandler) Info(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	if !rc.HasTenant() || rc.Tenant == nil {
		return domain.ErrTenantNotFound
	}
	return c.JSON(dto.TenantInfoResponse{
		TenantID: rc.TenantID,
		Slug:     rc.Tenant.Slug,
		Name:     rc.Tenant.Name,
		Status:   rc.Tenant.Status,
		StoreID:  rc.StoreID,
		Strategy: string(GetStrategy(c)),
	})
}

// CustomerMe godoc
// @Summary      Identidad del cliente de la mini-app
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CustomerSessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/t/{tenantKey}/customer/me [get]
func (h *TenantHandler) CustomerMe(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	identity := GetCustomerIdentity(c)
	if identity == nil {
		return domain.ErrAuthenticationRequired
	}
	return c.JSON(dto.CustomerSessionResponse{
		TenantID: rc.TenantID,
		StoreID:  rc.StoreID,
		UserID:   identity.Subject,
		Name:     identity.Name,
		Picture:  identity.Picture,
		Verified: identity.Verified,
	})
}

// AdminMe godoc
// @Summary      Sesión del admin: rol, permisos y tiendas
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Param        x-tenant-id  header  string  false  "Tenant (si no va en el subdominio)"
// @Param        x-store-id   header  string  false  "Tienda seleccionada"
// @Success      200  {object}  dto.AdminSessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/me [get]
func (h *TenantHandler) AdminMe(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	storeIDs := rc.StoreIDs
	if storeIDs == nil {
		storeIDs = []string{}
	}
	return c.JSON(dto.AdminSessionResponse{
		TenantID:    rc.TenantID,
		StoreID:     rc.StoreID,
		StoreIDs:    storeIDs,
		UserID:      rc.UserID,
		Email:       rc.Email,
		Role:        rc.Role,
		Permissions: rc.Permissions,
	})
}
