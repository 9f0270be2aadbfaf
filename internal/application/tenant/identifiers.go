package tenant

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// StoreCodeAlphabet sin caracteres confundibles (I, O, 0, 1). 32 símbolos.
const StoreCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// StoreCodeLength longitud fija de los códigos de tienda.
const StoreCodeLength = 8

var (
	storeCodeRe = regexp.MustCompile(`^[` + StoreCodeAlphabet + `]{8}$`)
	slugRe      = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
)

// Subdominios que nunca identifican a un tenant.
var reservedSubdomains = map[string]bool{"www": true, "api": true, "admin": true}

// RequestIdentifiers lo que el gate lee de la petición; se construye una sola vez en el boundary HTTP.
type RequestIdentifiers struct {
	PathKey        string // segmento de ruta :tenantKey
	HeaderTenantID string // x-tenant-id
	Host           string // cabecera Host, para el subdominio
	StoreID        string // x-store-id o ?storeId=
	BearerToken    string // Authorization: Bearer <token>, sin el prefijo
}

// KeyCandidate aplica la prioridad ruta > cabecera > subdominio. Solo se honra una fuente.
func (ri RequestIdentifiers) KeyCandidate(baseDomain string) string {
	if k := normalizeKey(ri.PathKey); k != "" {
		return k
	}
	if k := normalizeKey(ri.HeaderTenantID); k != "" {
		return k
	}
	return subdomainKey(ri.Host, baseDomain)
}

// StoreCandidate store id normalizado, o "".
func (ri RequestIdentifiers) StoreCandidate() string {
	return normalizeKey(ri.StoreID)
}

// normalizeKey NFKC convierte dígitos y letras de ancho completo (IME japonés) a ASCII.
func normalizeKey(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func subdomainKey(host, baseDomain string) string {
	if host == "" || baseDomain == "" {
		return ""
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	suffix := "." + strings.TrimPrefix(strings.ToLower(baseDomain), ".")
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") || reservedSubdomains[label] {
		return ""
	}
	return label
}

// ParseUUID devuelve el UUID canónico si key tiene forma de UUID.
func ParseUUID(key string) (string, bool) {
	id, err := uuid.Parse(key)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// NormalizeStoreCode devuelve el código en mayúsculas si es sintácticamente válido.
func NormalizeStoreCode(key string) (string, bool) {
	code := strings.ToUpper(key)
	if !storeCodeRe.MatchString(code) {
		return "", false
	}
	return code, true
}

// NormalizeSlug devuelve el slug en minúsculas si es sintácticamente válido.
func NormalizeSlug(key string) (string, bool) {
	slug := strings.ToLower(key)
	if !slugRe.MatchString(slug) {
		return "", false
	}
	return slug, true
}

// GenerateStoreCode código aleatorio para la rotación de códigos. La unicidad la garantiza
// el índice único de la base; el llamante reintenta ante ErrDuplicate.
func GenerateStoreCode() (string, error) {
	buf := make([]byte, StoreCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generar código de tienda: %w", err)
	}
	for i, b := range buf {
		buf[i] = StoreCodeAlphabet[int(b)%len(StoreCodeAlphabet)]
	}
	return string(buf), nil
}
