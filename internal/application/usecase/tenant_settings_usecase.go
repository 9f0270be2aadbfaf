package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// ErrEncryptionUnavailable el proceso arrancó sin ENCRYPTION_KEY válida.
var ErrEncryptionUnavailable = errors.New("cifrado de secretos no disponible")

// Encrypter lo implementa *secretbox.Box.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// TenantSettingsUseCase configuración del tenant que alimenta la verificación de clientes.
type TenantSettingsUseCase struct {
	repo        repository.TenantSettingsRepository
	encrypter   Encrypter
	invalidator CacheInvalidator
	log         *logger.Logger
}

// NewTenantSettingsUseCase construye el caso de uso. encrypter puede ser nil; entonces
// toda escritura de secretos falla con ErrEncryptionUnavailable.
func NewTenantSettingsUseCase(repo repository.TenantSettingsRepository, encrypter Encrypter, invalidator CacheInvalidator, log *logger.Logger) *TenantSettingsUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &TenantSettingsUseCase{
		repo:        repo,
		encrypter:   encrypter,
		invalidator: invalidator,
		log:         log.Component("tenant_settings_usecase"),
	}
}

// UpdateLineChannel cifra y guarda el canal LINE del tenant. El secreto se guarda tal cual
// llega: los espacios forman parte de la clave HMAC.
func (uc *TenantSettingsUseCase) UpdateLineChannel(ctx context.Context, tenantID string, in dto.UpdateLineChannelRequest) (*dto.LineChannelResponse, error) {
	channelID := strings.TrimSpace(in.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel_id vacío", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.ChannelSecret) == "" {
		return nil, fmt.Errorf("%w: channel_secret vacío", domain.ErrInvalidInput)
	}
	if uc.encrypter == nil {
		return nil, ErrEncryptionUnavailable
	}
	enc, err := uc.encrypter.Encrypt(in.ChannelSecret)
	if err != nil {
		return nil, fmt.Errorf("cifrar secreto de canal: %w", err)
	}

	t, err := uc.repo.UpdateLineChannel(ctx, tenantID, channelID, enc)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}

	// Sin esto el verificador seguiría usando el secreto anterior hasta que expire el TTL.
	if err := uc.invalidator.InvalidateTenant(ctx, tenantID); err != nil {
		uc.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("no se pudo propagar la invalidación")
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("channel_id", channelID).Msg("canal LINE actualizado")
	return &dto.LineChannelResponse{
		TenantID:         t.ID,
		ChannelID:        t.LineChannelID,
		SecretConfigured: t.LineChannelSecretEnc != "",
	}, nil
}
