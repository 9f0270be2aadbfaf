// Package tenant resuelve a qué tenant (y opcionalmente a qué tienda) pertenece cada petición.
package tenant

import (
	"context"
	"fmt"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// Strategy cómo se identificó al tenant.
type Strategy string

const (
	StrategyNone      Strategy = "none"
	StrategyTenantID  Strategy = "tenant_id"
	StrategyStoreCode Strategy = "store_code"
	StrategySlug      Strategy = "slug"
)

// Options de una resolución.
type Options struct {
	Required      bool // sin clave => TenantNotFound en vez de contexto vacío
	AllowInactive bool // omite el chequeo active/trial
}

// Resolution resultado de Resolve. Tenant es una copia inmutable.
type Resolution struct {
	Tenant   *entity.Tenant
	StoreID  string
	Strategy Strategy
	Cached   bool
}

// TenantID "" cuando la resolución no era obligatoria y no había clave.
func (r *Resolution) TenantID() string {
	if r == nil || r.Tenant == nil {
		return ""
	}
	return r.Tenant.ID
}

// RequestContext construye el contexto por petición que verán los handlers.
func (r *Resolution) RequestContext() *entity.RequestContext {
	rc := &entity.RequestContext{}
	if r != nil && r.Tenant != nil {
		rc.TenantID = r.Tenant.ID
		rc.StoreID = r.StoreID
		rc.Tenant = r.Tenant
	}
	return rc
}

// Observer recibe la estrategia ganadora (métricas).
type Observer interface {
	TenantResolved(strategy string, cached bool)
}

// Config parámetros del resolver.
type Config struct {
	BaseDomain string
	Observer   Observer
}

// Resolver prueba las estrategias en orden fijo: UUID, código de tienda, slug.
type Resolver struct {
	tenants repository.TenantRepository
	stores  repository.StoreRepository
	cache   *cache.IdentityCache
	cfg     Config
	log     *logger.Logger
}

// NewResolver construye el resolver con la caché inyectada (nunca un singleton de paquete).
func NewResolver(tenants repository.TenantRepository, stores repository.StoreRepository, identityCache *cache.IdentityCache, cfg Config, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{tenants: tenants, stores: stores, cache: identityCache, cfg: cfg, log: log.Component("tenant_resolver")}
}

// Resolve determina tenant y tienda a partir de los identificadores de la petición.
func (r *Resolver) Resolve(ctx context.Context, ids RequestIdentifiers, opts Options) (*Resolution, error) {
	key := ids.KeyCandidate(r.cfg.BaseDomain)
	if key == "" {
		if opts.Required {
			return nil, domain.ErrTenantNotFound
		}
		return &Resolution{Strategy: StrategyNone}, nil
	}

	res, err := r.lookup(ctx, key, opts)
	if err != nil {
		return nil, err
	}

	if !opts.AllowInactive && !res.Tenant.IsServable() {
		r.log.Debug().Str("tenant_id", res.Tenant.ID).Str("status", res.Tenant.Status).Msg("tenant no servible")
		return nil, domain.ErrTenantInactive
	}

	if sid := ids.StoreCandidate(); sid != "" {
		storeID, err := r.storeOfTenant(ctx, res.Tenant.ID, sid)
		if err != nil {
			return nil, err
		}
		res.StoreID = storeID
	}

	if r.cfg.Observer != nil {
		r.cfg.Observer.TenantResolved(string(res.Strategy), res.Cached)
	}
	r.log.Debug().
		Str("tenant_id", res.Tenant.ID).
		Str("store_id", res.StoreID).
		Str("strategy", string(res.Strategy)).
		Bool("cached", res.Cached).
		Msg("tenant resuelto")
	return res, nil
}

// lookup una clave con forma de UUID se busca solo como id: si no existe no se
// prueba como código ni como slug.
func (r *Resolver) lookup(ctx context.Context, key string, opts Options) (*Resolution, error) {
	if id, ok := ParseUUID(key); ok {
		t, cached, err := r.byID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, domain.ErrTenantNotFound
		}
		return &Resolution{Tenant: t, Strategy: StrategyTenantID, Cached: cached}, nil
	}

	if code, ok := NormalizeStoreCode(key); ok {
		res, err := r.byStoreCode(ctx, code, opts)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	if slug, ok := NormalizeSlug(key); ok {
		t, cached, err := r.bySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return &Resolution{Tenant: t, Strategy: StrategySlug, Cached: cached}, nil
		}
	}

	return nil, domain.ErrTenantNotFound
}

func (r *Resolver) byID(ctx context.Context, id string) (*entity.Tenant, bool, error) {
	if t, ok := r.cache.GetTenantByID(id); ok {
		return &t, true, nil
	}
	t, err := r.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("buscar tenant por id: %w", err)
	}
	if t == nil {
		return nil, false, nil
	}
	r.cache.SetTenant(*t)
	snapshot := *t
	return &snapshot, false, nil
}

func (r *Resolver) bySlug(ctx context.Context, slug string) (*entity.Tenant, bool, error) {
	if t, ok := r.cache.GetTenantBySlug(slug); ok {
		return &t, true, nil
	}
	t, err := r.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, fmt.Errorf("buscar tenant por slug: %w", err)
	}
	if t == nil {
		return nil, false, nil
	}
	r.cache.SetTenant(*t)
	snapshot := *t
	return &snapshot, false, nil
}

// byStoreCode devuelve (nil, nil) si el código no existe o su tienda está inactiva
// (salvo AllowInactive), para que se pruebe el slug. Sin slug el resultado final
// sigue siendo TENANT_NOT_FOUND, así que una tienda inactiva no se revela.
func (r *Resolver) byStoreCode(ctx context.Context, code string, opts Options) (*Resolution, error) {
	if ref, ok := r.cache.GetStoreCode(code); ok {
		if !opts.AllowInactive && !ref.StoreActive {
			return nil, nil
		}
		t, tenantCached, err := r.byID(ctx, ref.TenantID)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return &Resolution{Tenant: t, StoreID: ref.StoreID, Strategy: StrategyStoreCode, Cached: tenantCached}, nil
		}
		// El tenant ya no existe: la entrada del código es basura.
		r.cache.InvalidateStoreCode(code)
	}

	loc, err := r.stores.GetLocationByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("buscar tienda por código: %w", err)
	}
	if loc == nil {
		return nil, nil
	}
	r.cache.SetStoreCode(code, cache.StoreRef{TenantID: loc.Tenant.ID, StoreID: loc.StoreID, StoreActive: loc.StoreActive})
	r.cache.SetTenant(loc.Tenant)

	if !opts.AllowInactive && !loc.StoreActive {
		return nil, nil
	}
	t := loc.Tenant
	return &Resolution{Tenant: &t, StoreID: loc.StoreID, Strategy: StrategyStoreCode}, nil
}

// storeOfTenant valida que la tienda pedida pertenezca al tenant. Si no, responde
// "no encontrada" para no revelar tiendas de otros tenants.
func (r *Resolver) storeOfTenant(ctx context.Context, tenantID, storeID string) (string, error) {
	id, ok := ParseUUID(storeID)
	if !ok {
		return "", domain.NewGateError(domain.CodeTenantNotFound, "tienda no encontrada")
	}
	store, err := r.stores.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", fmt.Errorf("validar tienda: %w", err)
	}
	if store == nil || store.TenantID != tenantID {
		return "", domain.NewGateError(domain.CodeTenantNotFound, "tienda no encontrada")
	}
	return store.ID, nil
}
