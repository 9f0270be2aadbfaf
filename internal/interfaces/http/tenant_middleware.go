package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/tenant"
)

// tenantResolver contrato mínimo que necesita el middleware. Lo implementa *tenant.Resolver.
type tenantResolver interface {
	Resolve(ctx context.Context, ids tenant.RequestIdentifiers, opts tenant.Options) (*tenant.Resolution, error)
}

// ResolveTenant resuelve tenant y tienda y deja el RequestContext en Locals.
// Debe ir antes de cualquier middleware de autenticación.
func ResolveTenant(resolver tenantResolver, opts tenant.Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := resolver.Resolve(c.UserContext(), ExtractIdentifiers(c), opts)
		if err != nil {
			return err
		}
		setRequestContext(c, res.RequestContext())
		c.Locals(LocalStrategy, res.Strategy)
		return c.Next()
	}
}
