package invoices

import (
	"context"
	"fmt"
)

// Service handles invoice business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new invoice.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	inv, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the request.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}
