package dto

// TenantInfoResponse datos públicos del tenant resuelto (sin secretos).
type TenantInfoResponse struct {
	TenantID string `json:"tenant_id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	StoreID  string `json:"store_id,omitempty"`
	Strategy string `json:"strategy"`
}

// CacheFlushResponse resultado de vaciar la caché de identidad.
type CacheFlushResponse struct {
	Flushed bool   `json:"flushed"`
	Origin  string `json:"origin"`
}

// UpdateLineChannelRequest entrada para configurar el canal LINE del tenant.
type UpdateLineChannelRequest struct {
	ChannelID     string `json:"channel_id" validate:"required"`
	ChannelSecret string `json:"channel_secret" validate:"required"`
}

// LineChannelResponse salida de la configuración LINE. El secreto nunca se devuelve.
type LineChannelResponse struct {
	TenantID         string `json:"tenant_id"`
	ChannelID        string `json:"channel_id"`
	SecretConfigured bool   `json:"secret_configured"`
}
