package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service handles account business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new account.
func (s *Service) Create(ctx context.Context, input CreateAccountInput) (*Account, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" {
		return nil, errors.New("account code is required")
	}
	if input.Name == "" {
		return nil, errors.New("account name is required")
	}

	acc, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns accounts matching the request.
func (s *Service) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}
