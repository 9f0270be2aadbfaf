package dto

import "time"

// UpdateStoreStatusRequest entrada para activar o desactivar una tienda.
type UpdateStoreStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// StoreResponse salida de una tienda.
type StoreResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	DisplayOrder int       `json:"display_order"`
	UpdatedAt    time.Time `json:"updated_at"`
}
