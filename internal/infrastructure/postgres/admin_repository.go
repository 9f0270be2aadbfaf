package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
)

var _ repository.AdminRepository = (*AdminRepo)(nil)

const adminColumns = `
	id, tenant_id, COALESCE(firebase_uid, ''), email, name, role,
	COALESCE(permissions, '{}'::jsonb), COALESCE(store_ids, '{}')::text[],
	is_active, created_at, updated_at`

// AdminRepo implementación del puerto AdminRepository sobre PostgreSQL.
type AdminRepo struct {
	q Querier
}

// NewAdminRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdminRepository(q Querier) *AdminRepo {
	return &AdminRepo{q: q}
}

// FindActiveByFirebaseUID admin activo del tenant con ese uid.
func (r *AdminRepo) FindActiveByFirebaseUID(ctx context.Context, tenantID, uid string) (*entity.Admin, error) {
	query := `
		SELECT ` + adminColumns + `
		FROM admins
		WHERE tenant_id = $1 AND firebase_uid = $2 AND is_active = true`
	a, err := scanAdmin(r.q.QueryRow(ctx, query, tenantID, uid))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin by uid: %w", err)
	}
	return a, nil
}

// FindActiveByEmail compara contra lower(email); usa el índice único parcial de admins activos.
func (r *AdminRepo) FindActiveByEmail(ctx context.Context, tenantID, emailLower string) (*entity.Admin, error) {
	query := `
		SELECT ` + adminColumns + `
		FROM admins
		WHERE tenant_id = $1 AND lower(email) = $2 AND is_active = true`
	a, err := scanAdmin(r.q.QueryRow(ctx, query, tenantID, emailLower))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return a, nil
}

// UpdateFirebaseUID re-vincula el uid. domain.ErrDuplicate si otro admin del tenant ya lo tiene.
func (r *AdminRepo) UpdateFirebaseUID(ctx context.Context, adminID, uid string) error {
	query := `UPDATE admins SET firebase_uid = $2, updated_at = now() WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, adminID, uid)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update admin uid: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgxScanner) (*entity.Admin, error) {
	var a entity.Admin
	err := row.Scan(
		&a.ID, &a.TenantID, &a.FirebaseUID, &a.Email, &a.Name, &a.Role,
		&a.Permissions, &a.StoreIDs,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
