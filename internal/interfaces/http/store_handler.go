package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/domain"
)

type storeService interface {
	ChangeStatus(ctx context.Context, tenantID, storeID string, in dto.UpdateStoreStatusRequest) (*dto.StoreResponse, error)
	RotateCode(ctx context.Context, tenantID, storeID string) (*dto.StoreResponse, error)
	FlushIdentityCache(ctx context.Context) error
}

// StoreHandler administración de tiendas que afecta a la caché de identidad.
type StoreHandler struct {
	uc     storeService
	origin string
}

// NewStoreHandler origin identifica a la instancia en la respuesta del flush.
func NewStoreHandler(uc storeService, origin string) *StoreHandler {
	return &StoreHandler{uc: uc, origin: origin}
}

// UpdateStatus godoc
// @Summary      Activar o desactivar una tienda
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        storeId  path  string                        true  "ID de la tienda"
// @Param        body     body  dto.UpdateStoreStatusRequest  true  "Nuevo estado"
// @Success      200  {object}  dto.StoreResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/stores/{storeId}/status [patch]
func (h *StoreHandler) UpdateStatus(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	var in dto.UpdateStoreStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return domain.ErrInvalidInput
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), rc.TenantID, c.Params("storeId"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// RotateCode godoc
// @Summary      Rotar el código público (QR) de una tienda
// @Description  El código anterior deja de resolver de inmediato en todas las instancias.
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        storeId  path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.StoreResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/stores/{storeId}/code [post]
func (h *StoreHandler) RotateCode(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	out, err := h.uc.RotateCode(c.UserContext(), rc.TenantID, c.Params("storeId"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// FlushCache godoc
// @Summary      Vaciar la caché de identidad en todas las instancias
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CacheFlushResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/cache/flush [post]
func (h *StoreHandler) FlushCache(c *fiber.Ctx) error {
	if err := h.uc.FlushIdentityCache(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(dto.CacheFlushResponse{Flushed: true, Origin: h.origin})
}
