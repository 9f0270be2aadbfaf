package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Reservas-api/internal/application/dto"
	"github.com/jhoicas/Reservas-api/internal/application/tenant"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
	"github.com/jhoicas/Reservas-api/internal/domain/repository"
	"github.com/jhoicas/Reservas-api/pkg/logger"
)

// CacheInvalidator lo implementa *invalidation.Bus (local + resto de instancias).
type CacheInvalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string) error
	InvalidateStore(ctx context.Context, tenantID, code string) error
	FlushAll(ctx context.Context) error
}

// StoreUseCase cambios de estado de tiendas que afectan a la resolución y al alcance.
type StoreUseCase struct {
	repo        repository.StoreRepository
	invalidator CacheInvalidator
	newCode     func() (string, error)
	log         *logger.Logger
}

// maxCodeAttempts colisiones seguidas con el índice único antes de rendirse.
const maxCodeAttempts = 5

// NewStoreUseCase construye el caso de uso.
func NewStoreUseCase(repo repository.StoreRepository, invalidator CacheInvalidator, log *logger.Logger) *StoreUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StoreUseCase{
		repo:        repo,
		invalidator: invalidator,
		newCode:     tenant.GenerateStoreCode,
		log:         log.Component("store_usecase"),
	}
}

// ChangeStatus activa o desactiva una tienda del tenant e invalida su código en la caché.
// Devuelve domain.ErrNotFound si la tienda no pertenece al tenant.
func (uc *StoreUseCase) ChangeStatus(ctx context.Context, tenantID, storeID string, in dto.UpdateStoreStatusRequest) (*dto.StoreResponse, error) {
	if in.Status != entity.StoreStatusActive && in.Status != entity.StoreStatusInactive {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Status)
	}
	store, err := uc.repo.UpdateStatus(ctx, tenantID, storeID, in.Status)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	// La caché local ya quedó invalidada aunque falle la publicación.
	if err := uc.invalidator.InvalidateStore(ctx, tenantID, store.Code); err != nil {
		uc.log.Warn().Err(err).Str("tenant_id", tenantID).Str("store_id", store.ID).Msg("no se pudo propagar la invalidación")
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("store_id", store.ID).Str("status", store.Status).Msg("estado de tienda actualizado")
	return entityToStoreResponse(store), nil
}

// RotateCode asigna un código nuevo a la tienda (QR filtrado o reimpreso). El código
// anterior deja de resolver en todas las instancias.
func (uc *StoreUseCase) RotateCode(ctx context.Context, tenantID, storeID string) (*dto.StoreResponse, error) {
	current, err := uc.repo.GetByID(ctx, tenantID, storeID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	var store *entity.Store
	for attempt := 1; store == nil; attempt++ {
		code, err := uc.newCode()
		if err != nil {
			return nil, err
		}
		store, err = uc.repo.UpdateCode(ctx, tenantID, storeID, code)
		if errors.Is(err, domain.ErrDuplicate) {
			if attempt >= maxCodeAttempts {
				return nil, fmt.Errorf("rotar código: %d colisiones seguidas: %w", attempt, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, domain.ErrNotFound
		}
	}

	if err := uc.invalidator.InvalidateStore(ctx, tenantID, current.Code); err != nil {
		uc.log.Warn().Err(err).Str("tenant_id", tenantID).Str("store_id", storeID).Msg("no se pudo propagar la invalidación")
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("store_id", storeID).Msg("código de tienda rotado")
	return entityToStoreResponse(store), nil
}

// FlushIdentityCache vacía la caché de identidad en todas las instancias.
func (uc *StoreUseCase) FlushIdentityCache(ctx context.Context) error {
	return uc.invalidator.FlushAll(ctx)
}

func entityToStoreResponse(s *entity.Store) *dto.StoreResponse {
	return &dto.StoreResponse{
		ID:           s.ID,
		TenantID:     s.TenantID,
		Code:         s.Code,
		Name:         s.Name,
		Status:       s.Status,
		DisplayOrder: s.DisplayOrder,
		UpdatedAt:    s.UpdatedAt,
	}
}
