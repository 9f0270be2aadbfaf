package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/application/tenant"
	"github.com/jhoicas/Reservas-api/internal/application/usecase"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/invalidation"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Reservas-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Reservas-api/pkg/jwt"
	"github.com/jhoicas/Reservas-api/pkg/secretbox"
)

// ──────────────────────────────────────────────────────────────────────────────
// Datos de prueba
// ──────────────────────────────────────────────────────────────────────────────

const (
	baseDomain    = "reservas.app"
	encryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	lineSecret    = "secreto-canal-sakura"
	lineChannel   = "2001234567"

	tenantSakura    = "3f2b8c1e-9d4a-4e6b-8c2d-7a1b5e9f1a01"
	tenantSuspended = "3f2b8c1e-9d4a-4e6b-8c2d-7a1b5e9f1a02"
	tenantBroken    = "3f2b8c1e-9d4a-4e6b-8c2d-7a1b5e9f1a03"

	storeA = "aaaaaaaa-0000-4000-8000-000000000001"
	storeB = "aaaaaaaa-0000-4000-8000-000000000002"
	storeC = "aaaaaaaa-0000-4000-8000-000000000003" // inactiva
)

// memDB implementa los tres puertos de persistencia en memoria.
type memDB struct {
	mu      sync.Mutex
	tenants map[string]*entity.Tenant
	stores  []*entity.Store
	admins  []*entity.Admin
}

func (m *memDB) tenantByID(id string) *entity.Tenant {
	if t, ok := m.tenants[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

type tenantPort struct{ db *memDB }

func (p tenantPort) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	return p.db.tenantByID(id), nil
}

func (p tenantPort) GetBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, t := range p.db.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (p tenantPort) UpdateLineChannel(_ context.Context, tenantID, channelID, secretEnc string) (*entity.Tenant, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	t, ok := p.db.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	t.LineChannelID = channelID
	t.LineChannelSecretEnc = secretEnc
	cp := *t
	return &cp, nil
}

type storePort struct{ db *memDB }

func (p storePort) GetLocationByCode(_ context.Context, code string) (*entity.StoreLocation, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, s := range p.db.stores {
		if s.Code == code {
			t := p.db.tenantByID(s.TenantID)
			return &entity.StoreLocation{StoreID: s.ID, StoreActive: s.IsActive(), Tenant: *t}, nil
		}
	}
	return nil, nil
}

func (p storePort) GetByID(_ context.Context, tenantID, storeID string) (*entity.Store, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, s := range p.db.stores {
		if s.ID == storeID && s.TenantID == tenantID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (p storePort) ListActiveByTenant(_ context.Context, tenantID string) ([]*entity.Store, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	var out []*entity.Store
	for _, s := range p.db.stores {
		if s.TenantID == tenantID && s.IsActive() {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (p storePort) UpdateStatus(_ context.Context, tenantID, storeID, status string) (*entity.Store, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, s := range p.db.stores {
		if s.ID == storeID && s.TenantID == tenantID {
			s.Status = status
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (p storePort) UpdateCode(_ context.Context, tenantID, storeID, code string) (*entity.Store, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	var target *entity.Store
	for _, s := range p.db.stores {
		if s.Code == code && s.ID != storeID {
			return nil, domain.ErrDuplicate
		}
		if s.ID == storeID && s.TenantID == tenantID {
			target = s
		}
	}
	if target == nil {
		return nil, nil
	}
	target.Code = code
	cp := *target
	return &cp, nil
}

type adminPort struct{ db *memDB }

func (p adminPort) FindActiveByFirebaseUID(_ context.Context, tenantID, uid string) (*entity.Admin, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, a := range p.db.admins {
		if a.TenantID == tenantID && a.FirebaseUID == uid && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (p adminPort) FindActiveByEmail(_ context.Context, tenantID, email string) (*entity.Admin, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, a := range p.db.admins {
		if a.TenantID == tenantID && strings.EqualFold(a.Email, email) && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (p adminPort) UpdateFirebaseUID(_ context.Context, adminID, uid string) error {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	for _, a := range p.db.admins {
		if a.ID == adminID {
			a.FirebaseUID = uid
			return nil
		}
	}
	return domain.ErrNotFound
}

// staticIdentity sustituye a Firebase: token -> uid/email.
type staticIdentity map[string]auth.IdentityClaims

func (s staticIdentity) VerifyIDToken(_ context.Context, raw string) (*auth.IdentityClaims, error) {
	c, ok := s[raw]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return &c, nil
}

type testEnv struct {
	app     *fiber.App
	db      *memDB
	cache   *cache.IdentityCache
	metrics *metrics.Gate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	box, err := secretbox.New(encryptionKey)
	require.NoError(t, err)
	encSecret, err := box.Encrypt(lineSecret)
	require.NoError(t, err)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &memDB{
		tenants: map[string]*entity.Tenant{
			tenantSakura: {ID: tenantSakura, Slug: "salon-sakura", Name: "Salon Sakura", Status: entity.TenantStatusActive,
				LineChannelID: lineChannel, LineChannelSecretEnc: encSecret},
			tenantSuspended: {ID: tenantSuspended, Slug: "salon-cerrado", Status: entity.TenantStatusSuspended},
			tenantBroken: {ID: tenantBroken, Slug: "salon-roto", Status: entity.TenantStatusTrial,
				LineChannelSecretEnc: "zz:zz:zz"},
		},
		stores: []*entity.Store{
			{ID: storeA, TenantID: tenantSakura, Code: "SAKURA23", Status: entity.StoreStatusActive, DisplayOrder: 1, CreatedAt: created},
			{ID: storeB, TenantID: tenantSakura, Code: "SAKURA45", Status: entity.StoreStatusActive, DisplayOrder: 2, CreatedAt: created},
			{ID: storeC, TenantID: tenantSakura, Code: "SAKURA67", Status: entity.StoreStatusInactive, DisplayOrder: 3, CreatedAt: created},
		},
		admins: []*entity.Admin{
			{ID: "adm-owner", TenantID: tenantSakura, FirebaseUID: "uid-owner", Email: "owner@sakura.jp", Role: entity.RoleOwner, IsActive: true},
			{ID: "adm-staff-a", TenantID: tenantSakura, FirebaseUID: "uid-staff", Email: "staff@sakura.jp", Role: entity.RoleStaff,
				StoreIDs: []string{storeA}, IsActive: true},
			{ID: "adm-staff-c", TenantID: tenantSakura, FirebaseUID: "uid-staff-c", Email: "c@sakura.jp", Role: entity.RoleStaff,
				StoreIDs: []string{storeC}, IsActive: true},
		},
	}

	gate := metrics.New()
	identityCache := cache.New(cache.Options{Observer: gate})
	t.Cleanup(func() { _ = identityCache.Close() })

	resolver := tenant.NewResolver(tenantPort{db}, storePort{db}, identityCache,
		tenant.Config{BaseDomain: baseDomain, Observer: gate}, nil)
	adminAuth := auth.NewAdminAuthenticator(staticIdentity{
		"tok-owner":    {Subject: "uid-owner", Email: "owner@sakura.jp"},
		"tok-staff":    {Subject: "uid-staff", Email: "staff@sakura.jp"},
		"tok-staff-c":  {Subject: "uid-staff-c", Email: "c@sakura.jp"},
		"tok-outsider": {Subject: "uid-nadie", Email: "nadie@gmail.com"},
	}, adminPort{db}, nil)
	customers := auth.NewCustomerTokenVerifier(tenantPort{db}, box, auth.CustomerTokenConfig{}, nil)
	bus := invalidation.NewBus(nil, identityCache, nil)

	boundary := apphttp.NewErrorBoundary(nil, gate)
	app := fiber.New(fiber.Config{ErrorHandler: boundary.Handle})
	apphttp.Router(app, apphttp.RouterDeps{
		Resolver:         resolver,
		AdminAuth:        adminAuth,
		Scopes:           auth.NewScopeCalculator(storePort{db}),
		Customers:        customers,
		StoreUC:          usecase.NewStoreUseCase(storePort{db}, bus, nil),
		TenantSettingsUC: usecase.NewTenantSettingsUseCase(tenantPort{db}, box, bus, nil),
		Metrics:          gate,
		InstanceID:       bus.Origin(),
		ServiceName:      "reservas-api-test",
	})
	return &testEnv{app: app, db: db, cache: identityCache, metrics: gate}
}

type reqOpt func(r *http.Request)

func withHeader(k, v string) reqOpt { return func(r *http.Request) { r.Header.Set(k, v) } }
func withBearer(tok string) reqOpt  { return withHeader("Authorization", "Bearer "+tok) }
func withHost(h string) reqOpt      { return func(r *http.Request) { r.Host = h } }

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, opts ...reqOpt) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func assertError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, code, body.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución de tenant
// ──────────────────────────────────────────────────────────────────────────────

func TestInfo_PorSlug(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	info := decode[dto.TenantInfoResponse](t, resp)
	assert.Equal(t, tenantSakura, info.TenantID)
	assert.Equal(t, "slug", info.Strategy)
	assert.Empty(t, info.StoreID)
}

func TestInfo_PorUUID(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/"+tenantSakura+"/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tenant_id", decode[dto.TenantInfoResponse](t, resp).Strategy)
}

func TestStores_CodigoDeTiendaResuelveTenantYTienda(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/stores/sakura23", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	info := decode[dto.TenantInfoResponse](t, resp)
	assert.Equal(t, tenantSakura, info.TenantID)
	assert.Equal(t, storeA, info.StoreID)
	assert.Equal(t, "store_code", info.Strategy)
}

func TestStores_TiendaInactivaNoSeRevela(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/stores/SAKURA67", nil)
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))
}

func TestInfo_ClaveDesconocida(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/no-existe/info", nil)
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))
}

func TestInfo_TenantSuspendido(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-cerrado/info", nil)
	assertError(t, resp, http.StatusForbidden, string(domain.CodeTenantInactive))
}

func TestInfo_TiendaDeOtroTenantEsNoEncontrada(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-cerrado/info?storeId="+storeA, nil,
		withHeader("x-tenant-id", tenantSakura))
	// La ruta gana a la cabecera: el tenant es el suspendido.
	assertError(t, resp, http.StatusForbidden, string(domain.CodeTenantInactive))

	env.db.tenants[tenantSuspended].Status = entity.TenantStatusActive
	env.cache.Flush()
	resp = env.do(t, http.MethodGet, "/api/t/salon-cerrado/info?storeId="+storeA, nil)
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Admins
// ──────────────────────────────────────────────────────────────────────────────

func TestAdminMe_CabeceraConTenantSuspendido(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSuspended), withBearer("tok-owner"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodeTenantInactive))
}

func TestAdminMe_SinToken(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil, withHeader("x-tenant-id", tenantSakura))
	assertError(t, resp, http.StatusUnauthorized, string(domain.CodeAuthenticationRequired))
}

func TestAdminMe_SinTenant(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil, withBearer("tok-owner"))
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))
}

func TestAdminMe_OwnerPorSubdominio(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHost("salon-sakura.reservas.app"), withBearer("tok-owner"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[dto.AdminSessionResponse](t, resp)
	assert.Equal(t, tenantSakura, me.TenantID)
	assert.Equal(t, "adm-owner", me.UserID)
	assert.Equal(t, []string{storeA, storeB}, me.StoreIDs)
	assert.Equal(t, storeA, me.StoreID)
	for _, key := range auth.PermissionKeys() {
		assert.True(t, me.Permissions[key], key)
	}
}

func TestAdminMe_UsuarioSinRegistro(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-outsider"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodeNotRegisteredAsAdmin))
	assert.Len(t, env.db.admins, 3, "nunca se da de alta un admin desde un token")
}

func TestAdminMe_ListaConTodasInactivas(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-staff-c"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodeNoAccessibleStores))
}

func TestAdminMe_TiendaFueraDeAlcance(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSakura), withHeader("x-store-id", storeB), withBearer("tok-staff"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodeStoreAccessDenied))
}

func TestAdminMe_StaffPermisosPorDefecto(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-staff"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[dto.AdminSessionResponse](t, resp)
	assert.Equal(t, []string{storeA}, me.StoreIDs)
	assert.True(t, me.Permissions[auth.PermManageReservations])
	assert.False(t, me.Permissions[auth.PermManageSettings])
}

// ──────────────────────────────────────────────────────────────────────────────
// Permisos y gestión de tiendas
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateStoreStatus_SinPermiso(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPatch, "/api/admin/stores/"+storeA+"/status", strings.NewReader(`{"status":"inactive"}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-staff"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodePermissionDenied))
}

func TestUpdateStoreStatus_DesactivarInvalidaCodigo(t *testing.T) {
	env := newTestEnv(t)

	// Calentar la caché por código de tienda.
	resp := env.do(t, http.MethodGet, "/api/stores/SAKURA23", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPatch, "/api/admin/stores/"+storeA+"/status", strings.NewReader(`{"status":"inactive"}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.StoreStatusInactive, decode[dto.StoreResponse](t, resp).Status)

	// Sin esperar al TTL: el código ya no resuelve.
	resp = env.do(t, http.MethodGet, "/api/stores/SAKURA23", nil)
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))

	// Y el staff asignado solo a esa tienda se queda sin tiendas.
	resp = env.do(t, http.MethodGet, "/api/admin/me", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-staff"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodeNoAccessibleStores))
}

func TestUpdateStoreStatus_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPatch, "/api/admin/stores/"+storeA+"/status", strings.NewReader(`{"status":"borrada"}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	assertError(t, resp, http.StatusBadRequest, apphttp.CodeInvalidInput)
}

func TestUpdateStoreStatus_TiendaDeOtroTenant(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPatch, "/api/admin/stores/bbbbbbbb-0000-4000-8000-000000000009/status",
		strings.NewReader(`{"status":"inactive"}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	assertError(t, resp, http.StatusNotFound, apphttp.CodeNotFound)
}

func TestRotateStoreCode_CodigoAnteriorDejaDeResolver(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/stores/SAKURA23", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/admin/stores/"+storeA+"/code", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decode[dto.StoreResponse](t, resp)
	require.NotEqual(t, "SAKURA23", rotated.Code)

	resp = env.do(t, http.MethodGet, "/api/stores/SAKURA23", nil)
	assertError(t, resp, http.StatusNotFound, string(domain.CodeTenantNotFound))

	resp = env.do(t, http.MethodGet, "/api/stores/"+rotated.Code, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[dto.TenantInfoResponse](t, resp)
	assert.Equal(t, storeA, info.StoreID)
	assert.Equal(t, "store_code", info.Strategy)
}

func TestRotateStoreCode_SinPermiso(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/admin/stores/"+storeA+"/code", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-staff"))
	assertError(t, resp, http.StatusForbidden, string(domain.CodePermissionDenied))
	assert.Equal(t, "SAKURA23", env.db.stores[0].Code)
}

func TestUpdateLineChannel_ElNuevoSecretoVerificaSinEsperarAlTTL(t *testing.T) {
	env := newTestEnv(t)
	const nuevo = "secreto-rotado-2026"

	// Calentar la caché del tenant con el secreto anterior.
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(customerToken(t, lineSecret, nil)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/admin/line-channel",
		strings.NewReader(`{"channel_id":"`+lineChannel+`","channel_secret":"`+nuevo+`"}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), nuevo)
	assert.Contains(t, string(raw), `"secret_configured":true`)

	resp = env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(customerToken(t, nuevo, nil)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(customerToken(t, lineSecret, nil)))
	assertError(t, resp, http.StatusUnauthorized, string(domain.CodeInvalidSignature))
}

func TestUpdateLineChannel_SecretoVacio(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPut, "/api/admin/line-channel",
		strings.NewReader(`{"channel_id":"`+lineChannel+`","channel_secret":"  "}`),
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	assertError(t, resp, http.StatusBadRequest, apphttp.CodeInvalidInput)
}

func TestFlushCache(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tenants, _ := env.cache.Len()
	require.Positive(t, tenants)

	resp = env.do(t, http.MethodPost, "/api/admin/cache/flush", nil,
		withHeader("x-tenant-id", tenantSakura), withBearer("tok-owner"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.CacheFlushResponse](t, resp).Flushed)

	// El propio flush vuelve a poblar la caché al resolver; lo que importa es que
	// lo cacheado antes ya no está (el tenant se re-lee de la base).
	env.db.tenants[tenantSakura].Name = "Salon Sakura Renovado"
	resp = env.do(t, http.MethodGet, "/api/t/salon-sakura/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Salon Sakura Renovado", decode[dto.TenantInfoResponse](t, resp).Name)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clientes de la mini-app
// ──────────────────────────────────────────────────────────────────────────────

func customerToken(t *testing.T, secret string, mod func(c *auth.CustomerClaims)) string {
	t.Helper()
	claims := auth.CustomerClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    auth.DefaultLINEIssuer,
			Subject:   "U4af4980629",
			Audience:  gojwt.ClaimStrings{lineChannel},
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: "Hanako",
	}
	if mod != nil {
		mod(&claims)
	}
	tok, err := pkgjwt.SignHS256(secret, claims)
	require.NoError(t, err)
	return tok
}

func TestCustomerMe_TokenValido(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(customerToken(t, lineSecret, nil)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[dto.CustomerSessionResponse](t, resp)
	assert.Equal(t, "U4af4980629", me.UserID)
	assert.Equal(t, tenantSakura, me.TenantID)
	assert.True(t, me.Verified)
}

func TestCustomerMe_FirmaAlterada(t *testing.T) {
	env := newTestEnv(t)
	tok := customerToken(t, lineSecret, nil)
	i := strings.LastIndex(tok, ".") + 1
	first := "A"
	if tok[i] == 'A' {
		first = "B"
	}
	tampered := tok[:i] + first + tok[i+1:]

	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(tampered))
	assertError(t, resp, http.StatusUnauthorized, string(domain.CodeInvalidSignature))
}

func TestCustomerMe_Expirado(t *testing.T) {
	env := newTestEnv(t)
	tok := customerToken(t, lineSecret, func(c *auth.CustomerClaims) {
		c.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Second))
	})
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(tok))
	assertError(t, resp, http.StatusUnauthorized, string(domain.CodeTokenExpired))
}

func TestCustomerMe_SinSecretoEnProduccion(t *testing.T) {
	env := newTestEnv(t)
	env.db.tenants[tenantSakura].LineChannelSecretEnc = ""
	resp := env.do(t, http.MethodGet, "/api/t/salon-sakura/customer/me", nil, withBearer(customerToken(t, "x", nil)))
	assertError(t, resp, http.StatusUnauthorized, string(domain.CodeNotConfigured))
}

func TestCustomerMe_SecretoCorruptoEsErrorInternoOpaco(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/t/salon-roto/customer/me", nil, withBearer(customerToken(t, "x", nil)))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), apphttp.CodeInternal)
	assert.NotContains(t, strings.ToLower(string(raw)), "ciphertext")
	assert.NotContains(t, strings.ToLower(string(raw)), "secreto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Boundary y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, apphttp.StatusFor(domain.CodeTenantNotFound))
	assert.Equal(t, http.StatusForbidden, apphttp.StatusFor(domain.CodeTenantInactive))
	assert.Equal(t, http.StatusUnauthorized, apphttp.StatusFor(domain.CodeChannelMismatch))
	assert.Equal(t, http.StatusUnauthorized, apphttp.StatusFor(domain.CodeNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, apphttp.StatusFor(domain.CodeInvalidCiphertext))
	assert.Equal(t, http.StatusInternalServerError, apphttp.StatusFor("OTRO"))
}

func TestMetrics_CuentaFallosPorCodigo(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/t/salon-cerrado/info", nil)
	env.do(t, http.MethodGet, "/api/t/salon-sakura/info", nil)
	env.do(t, http.MethodGet, "/api/t/salon-sakura/info", nil)

	resp := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `gate_failures_total{code="TENANT_INACTIVE"} 1`)
	assert.Contains(t, body, `gate_tenant_resolutions_total{cached="true",strategy="slug"} 1`)
	assert.Contains(t, body, `gate_cache_requests_total{result="hit",table="tenants"}`)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRutaInexistente(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/nada", nil)
	assertError(t, resp, http.StatusNotFound, apphttp.CodeNotFound)
}
