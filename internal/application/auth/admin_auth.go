package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// IdentityClaims lo que devuelve el proveedor de identidad tras verificar firma y expiración.
type IdentityClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// IdentityVerifier proveedor de identidad del personal (Firebase). Los tokens inválidos
// se reportan como *domain.GateError; cualquier otro error es de infraestructura.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*IdentityClaims, error)
}

// UnconfiguredVerifier rechaza todo token con NOT_CONFIGURED. Se usa cuando no hay
// proyecto de Firebase (solo permitido fuera de producción).
type UnconfiguredVerifier struct{}

func (UnconfiguredVerifier) VerifyIDToken(context.Context, string) (*IdentityClaims, error) {
	return nil, domain.ErrNotConfigured
}

// AdminAuthenticator reconcilia el token del proveedor con la plantilla de admins del tenant.
type AdminAuthenticator struct {
	verifier IdentityVerifier
	admins   repository.AdminRepository
	log      *logger.Logger
}

// NewAdminAuthenticator construye el autenticador de admins.
func NewAdminAuthenticator(verifier IdentityVerifier, admins repository.AdminRepository, log *logger.Logger) *AdminAuthenticator {
	if log == nil {
		log = logger.Nop()
	}
	return &AdminAuthenticator{verifier: verifier, admins: admins, log: log.Component("admin_auth")}
}

// Authenticate devuelve el admin activo del tenant dueño del token.
// Nunca da de alta un admin a partir de un token: un tenant sin admins no puede ser
// reclamado por cualquier identidad autenticada.
func (a *AdminAuthenticator) Authenticate(ctx context.Context, bearerToken, tenantID string) (*entity.Admin, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if tenantID == "" {
		return nil, domain.ErrTenantNotFound
	}

	claims, err := a.verifier.VerifyIDToken(ctx, bearerToken)
	if err != nil {
		if _, ok := domain.CodeOf(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("verificar token del proveedor: %w", err)
	}
	if claims == nil || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	admin, err := a.admins.FindActiveByFirebaseUID(ctx, tenantID, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("buscar admin por uid: %w", err)
	}
	if admin != nil {
		return admin, nil
	}

	email := NormalizeEmail(claims.Email)
	if email == "" {
		return nil, domain.ErrNotRegisteredAsAdmin
	}
	admin, err = a.admins.FindActiveByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, fmt.Errorf("buscar admin por email: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrNotRegisteredAsAdmin
	}

	if err := a.admins.UpdateFirebaseUID(ctx, admin.ID, claims.Subject); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// El uid nuevo ya pertenece a otra fila: no se re-vincula en silencio.
			return nil, domain.ErrNotRegisteredAsAdmin
		}
		return nil, fmt.Errorf("re-vincular uid del admin: %w", err)
	}
	a.log.Info().
		Str("tenant_id", tenantID).
		Str("admin_id", admin.ID).
		Msg("uid del proveedor re-vinculado por email")

	relinked := *admin
	relinked.FirebaseUID = claims.Subject
	return &relinked, nil
}

// NormalizeEmail minúsculas Unicode y sin espacios, igual que lower(email) en PostgreSQL.
// Un Caser guarda estado: se crea uno por llamada.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
