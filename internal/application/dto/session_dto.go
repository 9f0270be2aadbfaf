package dto

// AdminSessionResponse contexto del admin autenticado: lo que el dashboard usa para pintar menús.
type AdminSessionResponse struct {
	TenantID    string          `json:"tenant_id"`
	StoreID     string          `json:"store_id"`
	StoreIDs    []string        `json:"store_ids"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

// CustomerSessionResponse identidad del cliente de la mini-app.
type CustomerSessionResponse struct {
	TenantID string `json:"tenant_id"`
	StoreID  string `json:"store_id,omitempty"`
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Verified bool   `json:"verified"`
}
