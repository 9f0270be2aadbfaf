package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
)

// Scope tiendas y permisos efectivos de un admin para esta petición.
type Scope struct {
	StoreIDs    []string
	StoreID     string // tienda seleccionada; "" si el tenant no tiene tiendas activas
	Permissions map[string]bool
}

// ScopeCalculator función pura de los datos leídos en la propia petición.
type ScopeCalculator struct {
	stores repository.StoreRepository
}

// NewScopeCalculator construye el calculador.
func NewScopeCalculator(stores repository.StoreRepository) *ScopeCalculator {
	return &ScopeCalculator{stores: stores}
}

// Compute calcula el alcance. Con lista explícita de tiendas y ninguna activa falla con
// NoAccessibleStores: nunca cae a "todas las tiendas activas".
func (s *ScopeCalculator) Compute(ctx context.Context, admin *entity.Admin, tenantID, requestedStoreID string) (*Scope, error) {
	if admin == nil || admin.TenantID != tenantID {
		return nil, domain.ErrNotRegisteredAsAdmin
	}

	active, err := s.stores.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listar tiendas activas: %w", err)
	}

	storeIDs := ScopeStores(admin.StoreIDs, active)
	if admin.HasStoreAllowlist() && len(storeIDs) == 0 {
		return nil, domain.ErrNoAccessibleStores
	}

	selected := ""
	if requestedStoreID != "" {
		if !slices.Contains(storeIDs, requestedStoreID) {
			return nil, domain.ErrStoreAccessDenied
		}
		selected = requestedStoreID
	} else if len(storeIDs) > 0 {
		selected = storeIDs[0]
	}

	return &Scope{
		StoreIDs:    storeIDs,
		StoreID:     selected,
		Permissions: EffectivePermissions(admin.Role, admin.Permissions),
	}, nil
}

// ScopeStores intersecta la lista del admin con las tiendas activas conservando el orden
// de las activas (display_order, created_at). Lista vacía = todas las activas.
func ScopeStores(allowlist []string, active []*entity.Store) []string {
	allowed := make(map[string]bool, len(allowlist))
	for _, id := range allowlist {
		allowed[id] = true
	}
	out := make([]string, 0, len(active))
	for _, st := range active {
		if !st.IsActive() {
			continue
		}
		if len(allowlist) == 0 || allowed[st.ID] {
			out = append(out, st.ID)
		}
	}
	return out
}
