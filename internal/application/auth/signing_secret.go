package auth

import "strings"

// SecretSource de dónde salió el secreto de firma.
type SecretSource string

const (
	SecretFromTenant SecretSource = "tenant"
	SecretFromEnv    SecretSource = "env"
	SecretNone       SecretSource = "none"
)

// ResolveSigningSecret precedencia: secreto del tenant (ya descifrado) y luego el de entorno.
// Sin I/O, para poder probar la precedencia por separado. Un secreto solo de espacios
// cuenta como ausente; si no, se devuelve intacto porque es la clave HMAC.
func ResolveSigningSecret(tenantSecret, envSecret string) (string, SecretSource) {
	if strings.TrimSpace(tenantSecret) != "" {
		return tenantSecret, SecretFromTenant
	}
	if strings.TrimSpace(envSecret) != "" {
		return envSecret, SecretFromEnv
	}
	return "", SecretNone
}

// ResolveChannelID audiencia esperada: la del tenant o, si no tiene, la global. "" = no se valida.
func ResolveChannelID(tenantChannelID, envChannelID string) string {
	if s := strings.TrimSpace(tenantChannelID); s != "" {
		return s
	}
	return strings.TrimSpace(envChannelID)
}
