package entity

// Tipos de llamante autenticado.
const (
	PrincipalAdmin    = "admin"
	PrincipalCustomer = "customer"
)

// RequestContext valor por petición: se crea en el boundary HTTP y nunca se reutiliza.
// Los handlers de dominio lo reciben como solo lectura.
type RequestContext struct {
	TenantID string
	StoreID  string
	Tenant   *Tenant

	// Rellenado tras autenticar.
	Principal   string
	UserID      string
	Email       string
	Role        string
	Permissions map[string]bool
	StoreIDs    []string
}

// HasTenant false cuando la resolución no era obligatoria y no había clave.
func (rc *RequestContext) HasTenant() bool {
	return rc != nil && rc.TenantID != ""
}
