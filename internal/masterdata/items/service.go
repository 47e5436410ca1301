package items

import (
	"context"
	"errors"
	"strings"

	"github.com/opsdesk/opsdesk/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, errors.New("invalid item ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	if err := s.validate(item); err != nil {
		return Item{}, err
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) Update(ctx context.Context, id int64, item Item) error {
	if id <= 0 {
		return errors.New("invalid item ID")
	}
	if err := s.validate(item); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, item)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid item ID")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(it Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return errors.New("item name is required")
	}
	if !it.Category.Valid() {
		return errors.New("unknown item category")
	}
	if it.DefaultRate.IsNegative() {
		return errors.New("default rate cannot be negative")
	}
	if it.TaxPct.IsNegative() {
		return errors.New("tax percentage cannot be negative")
	}
	return nil
}
