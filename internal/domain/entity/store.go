package entity

import "time"

const (
	StoreStatusActive   = "active"
	StoreStatusInactive = "inactive"
)

// Store sede física de un tenant. Code es único globalmente porque también es clave pública de búsqueda.
type Store struct {
	ID           string
	TenantID     string
	Code         string
	Name         string
	Status       string // active, inactive
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive informa si la tienda cuenta para el alcance de los admins.
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

// StoreLocation resultado de buscar por código: tienda y tenant dueño en una sola consulta.
type StoreLocation struct {
	StoreID     string
	StoreActive bool
	Tenant      Tenant
}
