package entity

import "time"

// Estados de ciclo de vida de un Tenant. Las transiciones son externas al gate.
const (
	TenantStatusActive    = "active"
	TenantStatusTrial     = "trial"
	TenantStatusSuspended = "suspended"
	TenantStatusCanceled  = "canceled"
)

// Tenant representa un cliente del SaaS (un salón). El slug es inmutable y único globalmente.
type Tenant struct {
	ID     string
	Slug   string
	Name   string
	Status string // active, trial, suspended, canceled

	// Integración LINE: el secreto se guarda cifrado con secretbox, nunca en claro.
	LineChannelID        string
	LineChannelSecretEnc string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsServable solo active y trial reciben tráfico.
func (t *Tenant) IsServable() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusTrial
}
