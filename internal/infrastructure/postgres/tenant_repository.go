package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
)

var (
	_ repository.TenantRepository         = (*TenantRepo)(nil)
	_ repository.TenantSettingsRepository = (*TenantRepo)(nil)
)

const tenantColumns = `
	t.id, t.slug, t.name, t.status,
	COALESCE(t.line_channel_id, ''), COALESCE(t.line_channel_secret_enc, ''),
	t.created_at, t.updated_at`

// TenantRepo implementación del puerto TenantRepository sobre PostgreSQL.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// GetByID obtiene un tenant por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t WHERE t.id = $1`
	t, err := scanTenant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// GetBySlug obtiene un tenant por slug (ya normalizado a minúsculas).
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t WHERE t.slug = $1`
	t, err := scanTenant(r.q.QueryRow(ctx, query, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}

// UpdateLineChannel guarda canal y secreto cifrado. Nunca recibe el secreto en claro.
func (r *TenantRepo) UpdateLineChannel(ctx context.Context, tenantID, channelID, secretEnc string) (*entity.Tenant, error) {
	query := `
		UPDATE tenants t SET line_channel_id = $2, line_channel_secret_enc = $3, updated_at = now()
		WHERE t.id = $1
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.q.QueryRow(ctx, query, tenantID, channelID, secretEnc))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update line channel: %w", err)
	}
	return t, nil
}

func scanTenant(row pgxScanner, extra ...any) (*entity.Tenant, error) {
	var t entity.Tenant
	dest := []any{
		&t.ID, &t.Slug, &t.Name, &t.Status,
		&t.LineChannelID, &t.LineChannelSecretEnc,
		&t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &t, nil
}
