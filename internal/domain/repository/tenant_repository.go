package repository

import (
	"context"

	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para Tenant (DIP).
// Las búsquedas devuelven (nil, nil) cuando no hay fila.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
}

// TenantSettingsRepository escrituras de configuración del tenant hechas desde el dashboard.
type TenantSettingsRepository interface {
	// UpdateLineChannel guarda el canal y su secreto ya cifrado; (nil, nil) si el tenant no existe.
	UpdateLineChannel(ctx context.Context, tenantID, channelID, secretEnc string) (*entity.Tenant, error)
}
