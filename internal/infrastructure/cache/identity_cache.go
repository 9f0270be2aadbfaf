// Package cache caché de identidad en proceso: evita una consulta a PostgreSQL por petición
// para resolver el tenant. Dos tablas independientes porque se invalidan por motivos distintos.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

// DefaultTTL ventana durante la que una fila de tenant/tienda puede servirse sin releerla.
const DefaultTTL = 5 * time.Minute

// Nombres de tabla, usados en métricas y en el bus de invalidación.
const (
	TableTenants    = "tenants"
	TableStoreCodes = "store_codes"
)

// StoreRef lo que se guarda por código de tienda.
type StoreRef struct {
	TenantID    string
	StoreID     string
	StoreActive bool
}

// Observer recibe cada acierto/fallo de caché (métricas).
type Observer interface {
	CacheLookup(table string, hit bool)
}

// Options configuración de IdentityCache. Now y JanitorInterval existen para los tests.
type Options struct {
	TTL             time.Duration
	Now             func() time.Time
	JanitorInterval time.Duration // 0 = sin limpieza periódica
	Observer        Observer
}

// IdentityCache dueño explícito de las dos tablas; se inyecta en el resolver.
type IdentityCache struct {
	tenants    *table[entity.Tenant]
	storeCodes *table[StoreRef]
	observer   Observer

	done      chan struct{}
	closeOnce sync.Once
}

// New crea la caché y, si se pide, arranca la goroutine de limpieza.
func New(opts Options) *IdentityCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &IdentityCache{
		tenants:    newTable[entity.Tenant](opts.TTL, opts.Now),
		storeCodes: newTable[StoreRef](opts.TTL, opts.Now),
		observer:   opts.Observer,
		done:       make(chan struct{}),
	}
	if opts.JanitorInterval > 0 {
		go c.janitor(opts.JanitorInterval)
	}
	return c
}

func tenantIDKey(id string) string     { return "id:" + strings.ToLower(id) }
func tenantSlugKey(slug string) string { return "slug:" + slug }

// GetTenantByID devuelve una copia del tenant cacheado.
func (c *IdentityCache) GetTenantByID(id string) (entity.Tenant, bool) {
	t, ok := c.tenants.get(tenantIDKey(id))
	c.observe(TableTenants, ok)
	return t, ok
}

// GetTenantBySlug como GetTenantByID pero por slug.
func (c *IdentityCache) GetTenantBySlug(slug string) (entity.Tenant, bool) {
	t, ok := c.tenants.get(tenantSlugKey(slug))
	c.observe(TableTenants, ok)
	return t, ok
}

// SetTenant guarda el snapshot bajo su id y bajo su slug.
func (c *IdentityCache) SetTenant(t entity.Tenant) {
	c.tenants.set(tenantIDKey(t.ID), t)
	if t.Slug != "" {
		c.tenants.set(tenantSlugKey(t.Slug), t)
	}
}

// GetStoreCode busca un código ya normalizado (mayúsculas).
func (c *IdentityCache) GetStoreCode(code string) (StoreRef, bool) {
	ref, ok := c.storeCodes.get(code)
	c.observe(TableStoreCodes, ok)
	return ref, ok
}

func (c *IdentityCache) SetStoreCode(code string, ref StoreRef) {
	c.storeCodes.set(code, ref)
}

// InvalidateTenant borra el tenant por id y todos sus alias (slug).
func (c *IdentityCache) InvalidateTenant(tenantID string) {
	id := strings.ToLower(tenantID)
	c.tenants.deleteFunc(func(t entity.Tenant) bool { return strings.ToLower(t.ID) == id })
}

// InvalidateStoreCode borra una entrada de código de tienda.
func (c *IdentityCache) InvalidateStoreCode(code string) {
	c.storeCodes.delete(code)
}

// InvalidateStoresOfTenant borra todos los códigos que apuntan a tiendas del tenant.
func (c *IdentityCache) InvalidateStoresOfTenant(tenantID string) {
	id := strings.ToLower(tenantID)
	c.storeCodes.deleteFunc(func(r StoreRef) bool { return strings.ToLower(r.TenantID) == id })
}

// Flush vacía ambas tablas.
func (c *IdentityCache) Flush() {
	c.tenants.flush()
	c.storeCodes.flush()
}

// Len número de entradas (incluidas expiradas aún no purgadas) por tabla.
func (c *IdentityCache) Len() (tenants, storeCodes int) {
	return c.tenants.size(), c.storeCodes.size()
}

// Close detiene la limpieza periódica. Es idempotente.
func (c *IdentityCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *IdentityCache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tenants.purgeExpired()
			c.storeCodes.purgeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *IdentityCache) observe(table string, hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(table, hit)
	}
}
