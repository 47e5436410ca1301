package vendors

import (
	"context"
	"errors"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Vendor, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Vendor, error) {
	if id <= 0 {
		return Vendor{}, errors.New("invalid vendor ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, vendor Vendor) (Vendor, error) {
	if err := s.validate(vendor); err != nil {
		return Vendor{}, err
	}
	return s.repo.Create(ctx, vendor)
}

func (s *Service) Update(ctx context.Context, id int64, vendor Vendor) error {
	if id <= 0 {
		return errors.New("invalid vendor ID")
	}
	if err := s.validate(vendor); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, vendor)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid vendor ID")
	}
	return s.repo.Delete(ctx, id)
}

// Snapshot copies the vendor's contact fields for embedding into a
// document at creation time.
func (s *Service) Snapshot(ctx context.Context, id int64) (ledger.PartySnapshot, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return ledger.PartySnapshot{}, err
	}
	return ledger.PartySnapshot{
		Name:    v.Name,
		Email:   v.Email,
		Phone:   v.Phone,
		Address: v.Address,
		GSTIN:   v.GSTIN,
	}, nil
}
