package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, contact Contact) (Contact, error)
	Update(ctx context.Context, contact Contact) (Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Contact, error)
	List(ctx context.Context) ([]Contact, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, contact Contact) (Contact, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now()
	}
	return s.repo.Store(ctx, userId, contact)
}

func (s *ServiceImpl) Update(ctx context.Context, contact Contact) (Contact, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Update(ctx, userId, contact)
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, id)
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (Contact, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindById(ctx, userId, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Contact, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindAll(ctx, userId)
}
