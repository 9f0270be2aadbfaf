package domain

import "errors"

// ErrorCode código estable y legible por máquina que ve el cliente.
type ErrorCode string

// Taxonomía cerrada de fallos del gate (resolución de tenant, autenticación y alcance).
const (
	CodeTenantNotFound         ErrorCode = "TENANT_NOT_FOUND"
	CodeTenantInactive         ErrorCode = "TENANT_INACTIVE"
	CodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	CodeInvalidToken           ErrorCode = "INVALID_TOKEN"
	CodeInvalidSignature       ErrorCode = "INVALID_SIGNATURE"
	CodeTokenExpired           ErrorCode = "TOKEN_EXPIRED"
	CodeInvalidIssuer          ErrorCode = "INVALID_ISSUER"
	CodeChannelMismatch        ErrorCode = "CHANNEL_MISMATCH"
	CodeNotRegisteredAsAdmin   ErrorCode = "NOT_REGISTERED_AS_ADMIN"
	CodeStoreAccessDenied      ErrorCode = "STORE_ACCESS_DENIED"
	CodeNoAccessibleStores     ErrorCode = "NO_ACCESSIBLE_STORES"
	CodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	CodeNotConfigured          ErrorCode = "NOT_CONFIGURED"
	// CodeInvalidCiphertext es interno: el boundary lo reporta como 500 sin detalles.
	CodeInvalidCiphertext ErrorCode = "INVALID_CIPHERTEXT"
)

// GateError fallo tipado del gate. Is compara por código, de modo que
// errors.Is(err, domain.ErrTenantInactive) funciona con cualquier mensaje.
type GateError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *GateError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *GateError) Unwrap() error { return e.Err }

func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	return ok && t.Code == e.Code
}

// NewGateError crea un fallo con el mensaje que verá el cliente.
func NewGateError(code ErrorCode, message string) *GateError {
	return &GateError{Code: code, Message: message}
}

// WrapGateError igual que NewGateError conservando la causa (solo para logs).
func WrapGateError(code ErrorCode, message string, err error) *GateError {
	return &GateError{Code: code, Message: message, Err: err}
}

// CodeOf extrae el código de un error del gate; ok=false si err no es un GateError.
func CodeOf(err error) (ErrorCode, bool) {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Code, true
	}
	return "", false
}

// Centinelas para errors.Is.
var (
	ErrTenantNotFound         = NewGateError(CodeTenantNotFound, "tenant no encontrado")
	ErrTenantInactive         = NewGateError(CodeTenantInactive, "tenant inactivo")
	ErrAuthenticationRequired = NewGateError(CodeAuthenticationRequired, "autenticación requerida")
	ErrInvalidToken           = NewGateError(CodeInvalidToken, "token inválido")
	ErrInvalidSignature       = NewGateError(CodeInvalidSignature, "firma inválida")
	ErrTokenExpired           = NewGateError(CodeTokenExpired, "token expirado")
	ErrInvalidIssuer          = NewGateError(CodeInvalidIssuer, "emisor inválido")
	ErrChannelMismatch        = NewGateError(CodeChannelMismatch, "el canal no coincide")
	ErrNotRegisteredAsAdmin   = NewGateError(CodeNotRegisteredAsAdmin, "no registrado como administrador")
	ErrStoreAccessDenied      = NewGateError(CodeStoreAccessDenied, "sin acceso a la tienda")
	ErrNoAccessibleStores     = NewGateError(CodeNoAccessibleStores, "no hay tiendas accesibles")
	ErrPermissionDenied       = NewGateError(CodePermissionDenied, "permiso denegado")
	ErrNotConfigured          = NewGateError(CodeNotConfigured, "autenticación no configurada")
	ErrInvalidCiphertext      = NewGateError(CodeInvalidCiphertext, "secreto cifrado corrupto")
)
