package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

type adminAuthenticator interface {
	Authenticate(ctx context.Context, bearerToken, tenantID string) (*entity.Admin, error)
}

type scopeCalculator interface {
	Compute(ctx context.Context, admin *entity.Admin, tenantID, requestedStoreID string) (*auth.Scope, error)
}

type customerVerifier interface {
	Verify(ctx context.Context, rawToken, tenantID string) (*auth.CustomerIdentity, error)
}

// RequireAdmin autentica al personal y calcula su alcance. Debe usarse DESPUÉS de ResolveTenant.
// La tienda pedida es la que ya validó el resolver (x-store-id / storeId / código de tienda).
func RequireAdmin(authn adminAuthenticator, scopes scopeCalculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := GetRequestContext(c)
		if !rc.HasTenant() {
			return domain.ErrTenantNotFound
		}

		token := bearerToken(c.Get(HeaderAuthorize))
		admin, err := authn.Authenticate(c.UserContext(), token, rc.TenantID)
		if err != nil {
			return err
		}
		scope, err := scopes.Compute(c.UserContext(), admin, rc.TenantID, rc.StoreID)
		if err != nil {
			return err
		}

		next := *rc
		next.StoreID = scope.StoreID
		next.Principal = entity.PrincipalAdmin
		next.UserID = admin.ID
		next.Email = admin.Email
		next.Role = admin.Role
		next.Permissions = scope.Permissions
		next.StoreIDs = scope.StoreIDs
		setRequestContext(c, &next)
		return c.Next()
	}
}

// RequireCustomer verifica el token de la mini-app contra el tenant resuelto.
func RequireCustomer(verifier customerVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := GetRequestContext(c)
		if !rc.HasTenant() {
			return domain.ErrTenantNotFound
		}

		identity, err := verifier.Verify(c.UserContext(), bearerToken(c.Get(HeaderAuthorize)), rc.TenantID)
		if err != nil {
			return err
		}

		next := *rc
		next.Principal = entity.PrincipalCustomer
		next.UserID = identity.Subject
		setRequestContext(c, &next)
		c.Locals(LocalCustomerIdentity, identity)
		return c.Next()
	}
}

// RequirePermission 403 PERMISSION_DENIED si el mapa de permisos no concede key.
// Debe usarse DESPUÉS de RequireAdmin; el owner ya trae todos los permisos en el mapa.
func RequirePermission(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := GetRequestContext(c)
		if rc.Principal != entity.PrincipalAdmin {
			return domain.ErrAuthenticationRequired
		}
		if rc.Role != entity.RoleOwner && !auth.Allowed(rc.Permissions, key) {
			return domain.ErrPermissionDenied
		}
		return c.Next()
	}
}
