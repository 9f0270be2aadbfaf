package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// Códigos fuera de la taxonomía del gate.
const (
	CodeInternal     = "INTERNAL"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
)

var gateStatus = map[domain.ErrorCode]int{
	domain.CodeTenantNotFound:         fiber.StatusNotFound,
	domain.CodeTenantInactive:         fiber.StatusForbidden,
	domain.CodeAuthenticationRequired: fiber.StatusUnauthorized,
	domain.CodeInvalidToken:           fiber.StatusUnauthorized,
	domain.CodeInvalidSignature:       fiber.StatusUnauthorized,
	domain.CodeTokenExpired:           fiber.StatusUnauthorized,
	domain.CodeInvalidIssuer:          fiber.StatusUnauthorized,
	domain.CodeChannelMismatch:        fiber.StatusUnauthorized,
	domain.CodeNotRegisteredAsAdmin:   fiber.StatusForbidden,
	domain.CodeStoreAccessDenied:      fiber.StatusForbidden,
	domain.CodeNoAccessibleStores:     fiber.StatusForbidden,
	domain.CodePermissionDenied:       fiber.StatusForbidden,
	domain.CodeNotConfigured:          fiber.StatusUnauthorized,
}

// StatusFor status HTTP de un código del gate. INVALID_CIPHERTEXT y los desconocidos son 500.
func StatusFor(code domain.ErrorCode) int {
	if s, ok := gateStatus[code]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// failureRecorder lo implementa *metrics.Gate.
type failureRecorder interface {
	GateFailure(code string)
}

// ErrorBoundary único punto donde un error se convierte en respuesta HTTP.
// Los middlewares y handlers solo devuelven errores.
type ErrorBoundary struct {
	log      *logger.Logger
	failures failureRecorder
}

// NewErrorBoundary failures puede ser nil.
func NewErrorBoundary(log *logger.Logger, failures failureRecorder) *ErrorBoundary {
	if log == nil {
		log = logger.Nop()
	}
	return &ErrorBoundary{log: log.Component("http_boundary"), failures: failures}
}

// Handle se registra como fiber.Config.ErrorHandler.
func (b *ErrorBoundary) Handle(c *fiber.Ctx, err error) error {
	status, body := b.translate(c, err)
	return c.Status(status).JSON(body)
}

func (b *ErrorBoundary) translate(c *fiber.Ctx, err error) (int, dto.ErrorResponse) {
	var ge *domain.GateError
	if errors.As(err, &ge) {
		status := StatusFor(ge.Code)
		b.record(string(ge.Code))
		if status == fiber.StatusInternalServerError {
			// Datos corruptos: se registra la causa pero el cliente no ve detalles.
			b.requestLog(c).Error().Err(err).Str("code", string(ge.Code)).Str("path", c.Path()).Msg("fallo interno del gate")
			return status, dto.ErrorResponse{Code: CodeInternal, Message: "error interno"}
		}
		b.requestLog(c).Warn().Str("code", string(ge.Code)).Str("path", c.Path()).Msg("petición rechazada")
		return status, dto.ErrorResponse{Code: string(ge.Code), Message: ge.Message}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeInvalidInput, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: CodeNotFound, Message: "recurso no encontrado"}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeBadRequest
		switch fe.Code {
		case fiber.StatusNotFound:
			code = CodeNotFound
		case fiber.StatusInternalServerError:
			code = CodeInternal
		}
		return fe.Code, dto.ErrorResponse{Code: code, Message: fe.Message}
	}

	b.record(CodeInternal)
	b.requestLog(c).Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: CodeInternal, Message: "error interno"}
}

func (b *ErrorBoundary) record(code string) {
	if b.failures != nil {
		b.failures.GateFailure(code)
	}
}

func (b *ErrorBoundary) requestLog(c *fiber.Ctx) *logger.Logger {
	if rc := GetRequestContext(c); rc.HasTenant() {
		return b.log.WithTenant(rc.TenantID, rc.StoreID)
	}
	return b.log
}
