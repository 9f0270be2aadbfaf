package entity

import "time"

// Roles válidos para Admin.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Admin usuario del personal, autenticado vía proveedor de identidad (Firebase).
// FirebaseUID puede cambiar (cuenta re-vinculada); el email es la clave durable de recuperación.
// Desactivar es un flag, nunca un borrado.
type Admin struct {
	ID          string
	TenantID    string
	FirebaseUID string
	Email       string
	Name        string
	Role        string          // owner, admin, manager, staff
	Permissions map[string]bool // flags explícitos; puede usar nombres antiguos
	StoreIDs    []string        // vacío = todas las tiendas activas
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasStoreAllowlist informa si el admin está restringido a tiendas concretas.
func (a *Admin) HasStoreAllowlist() bool {
	return len(a.StoreIDs) > 0
}
