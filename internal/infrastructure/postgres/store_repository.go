package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

const storeColumns = `id, tenant_id, code, name, status, display_order, created_at, updated_at`

// StoreRepo implementación del puerto StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// GetLocationByCode tienda + tenant dueño en una sola consulta.
func (r *StoreRepo) GetLocationByCode(ctx context.Context, code string) (*entity.StoreLocation, error) {
	query := `
		SELECT ` + tenantColumns + `, s.id, s.status = 'active'
		FROM stores s
		JOIN tenants t ON t.id = s.tenant_id
		WHERE s.code = $1`
	var loc entity.StoreLocation
	t, err := scanTenant(r.q.QueryRow(ctx, query, code), &loc.StoreID, &loc.StoreActive)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store by code: %w", err)
	}
	loc.Tenant = *t
	return &loc, nil
}

// GetByID obtiene una tienda solo si pertenece al tenant.
func (r *StoreRepo) GetByID(ctx context.Context, tenantID, storeID string) (*entity.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1 AND tenant_id = $2`
	s, err := scanStore(r.q.QueryRow(ctx, query, storeID, tenantID))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return s, nil
}

// listActiveStoresQuery el orden decide la tienda por defecto del admin.
const listActiveStoresQuery = `
		SELECT ` + storeColumns + `
		FROM stores
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY display_order ASC, created_at ASC`

// ListActiveByTenant tiendas activas por display_order y luego created_at.
func (r *StoreRepo) ListActiveByTenant(ctx context.Context, tenantID string) ([]*entity.Store, error) {
	rows, err := r.q.Query(ctx, listActiveStoresQuery, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}
	defer rows.Close()

	var list []*entity.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado y devuelve la fila actualizada; (nil, nil) si no es del tenant.
func (r *StoreRepo) UpdateStatus(ctx context.Context, tenantID, storeID, status string) (*entity.Store, error) {
	query := `
		UPDATE stores SET status = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + storeColumns
	s, err := scanStore(r.q.QueryRow(ctx, query, storeID, tenantID, status))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update store status: %w", err)
	}
	return s, nil
}

// UpdateCode reasigna el código público (rotación del QR).
func (r *StoreRepo) UpdateCode(ctx context.Context, tenantID, storeID, code string) (*entity.Store, error) {
	query := `
		UPDATE stores SET code = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + storeColumns
	s, err := scanStore(r.q.QueryRow(ctx, query, storeID, tenantID, code))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicate
		}
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update store code: %w", err)
	}
	return s, nil
}

func scanStore(row pgxScanner) (*entity.Store, error) {
	var s entity.Store
	err := row.Scan(
		&s.ID, &s.TenantID, &s.Code, &s.Name, &s.Status, &s.DisplayOrder,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
