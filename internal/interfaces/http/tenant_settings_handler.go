package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/domain"
)

type tenantSettingsService interface {
	UpdateLineChannel(ctx context.Context, tenantID string, in dto.UpdateLineChannelRequest) (*dto.LineChannelResponse, error)
}

// TenantSettingsHandler configuración del tenant resuelto.
type TenantSettingsHandler struct {
	uc tenantSettingsService
}

func NewTenantSettingsHandler(uc tenantSettingsService) *TenantSettingsHandler {
	return &TenantSettingsHandler{uc: uc}
}

// UpdateLineChannel godoc
// @Summary      Configurar el canal LINE del tenant
// @Description  El secreto se guarda cifrado y nunca se devuelve.
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdateLineChannelRequest  true  "Canal y secreto"
// @Success      200  {object}  dto.LineChannelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/line-channel [put]
func (h *TenantSettingsHandler) UpdateLineChannel(c *fiber.Ctx) error {
	rc := GetRequestContext(c)
	var in dto.UpdateLineChannelRequest
	if err := c.BodyParser(&in); err != nil {
		return domain.ErrInvalidInput
	}
	out, err := h.uc.UpdateLineChannel(c.UserContext(), rc.TenantID, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
