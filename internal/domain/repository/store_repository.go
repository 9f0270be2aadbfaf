package repository

import (
	"context"

	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

// StoreRepository puerto de persistencia para Store.
type StoreRepository interface {
	// GetLocationByCode une store con su tenant: el código es único globalmente.
	GetLocationByCode(ctx context.Context, code string) (*entity.StoreLocation, error)
	// GetByID solo encuentra la tienda si pertenece a tenantID.
	GetByID(ctx context.Context, tenantID, storeID string) (*entity.Store, error)
	// ListActiveByTenant ordenadas por display_order y luego created_at.
	ListActiveByTenant(ctx context.Context, tenantID string) ([]*entity.Store, error)
	UpdateStatus(ctx context.Context, tenantID, storeID, status string) (*entity.Store, error)
	// UpdateCode domain.ErrDuplicate si el código ya lo usa otra tienda (de cualquier tenant).
	UpdateCode(ctx context.Context, tenantID, storeID, code string) (*entity.Store, error)
}
