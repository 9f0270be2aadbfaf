package repository

import (
	"context"

	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

// AdminRepository puerto de persistencia para Admin. Solo se consultan admins activos.
type AdminRepository interface {
	FindActiveByFirebaseUID(ctx context.Context, tenantID, uid string) (*entity.Admin, error)
	// FindActiveByEmail compara lower(email); emailLower ya viene normalizado.
	FindActiveByEmail(ctx context.Context, tenantID, emailLower string) (*entity.Admin, error)
	UpdateFirebaseUID(ctx context.Context, adminID, uid string) error
}
