package auth_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/domain"
	"github.com/jhoicas/Reservas-api/internal/domain/entity"
)

const (
	testTenantID = "11111111-2222-4333-8444-555555555555"
	otherTenant  = "99999999-2222-4333-8444-555555555555"
)

// fakeStores solo implementa lo que usa ScopeCalculator.
type fakeStores struct {
	active []*entity.Store
	err    error
}

func (f *fakeStores) GetLocationByCode(context.Context, string) (*entity.StoreLocation, error) {
	return nil, errors.New("no usado")
}

func (f *fakeStores) GetByID(context.Context, string, string) (*entity.Store, error) {
	return nil, errors.New("no usado")
}

func (f *fakeStores) ListActiveByTenant(_ context.Context, tenantID string) ([]*entity.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.Store
	for _, s := range f.active {
		if s.TenantID == tenantID && s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStores) UpdateCode(context.Context, string, string, string) (*entity.Store, error) {
	return nil, errors.New("no usado")
}

func (f *fakeStores) UpdateStatus(context.Context, string, string, string) (*entity.Store, error) {
	return nil, errors.New("no usado")
}

type fakeAdmins struct {
	mu        sync.Mutex
	admins    []*entity.Admin
	updateErr error
	relinked  map[string]string
}

func (f *fakeAdmins) FindActiveByFirebaseUID(_ context.Context, tenantID, uid string) (*entity.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.TenantID == tenantID && a.FirebaseUID == uid && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAdmins) FindActiveByEmail(_ context.Context, tenantID, emailLower string) (*entity.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.TenantID == tenantID && auth.NormalizeEmail(a.Email) == emailLower && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAdmins) UpdateFirebaseUID(_ context.Context, adminID, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.relinked == nil {
		f.relinked = map[string]string{}
	}
	f.relinked[adminID] = uid
	for _, a := range f.admins {
		if a.ID == adminID {
			a.FirebaseUID = uid
		}
	}
	return nil
}

type fakeVerifier struct {
	claims map[string]*auth.IdentityClaims
	err    error
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, raw string) (*auth.IdentityClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.claims[raw]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return c, nil
}

type fakeTenants struct {
	byID map[string]*entity.Tenant
	err  error
}

func (f *fakeTenants) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeTenants) GetBySlug(context.Context, string) (*entity.Tenant, error) {
	return nil, errors.New("no usado")
}
