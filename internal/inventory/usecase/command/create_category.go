package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// CreateCategoryCommand represents the command to create a category
type CreateCategoryCommand struct {
	TenantID    string
	Name        string
	Description string
}

// CreateCategoryHandler handles create category command
type CreateCategoryHandler struct {
	repo domain.Repository
}

// NewCreateCategoryHandler creates a new create category handler
func NewCreateCategoryHandler(repo domain.Repository) *CreateCategoryHandler {
	return &CreateCategoryHandler{repo: repo}
}

// Handle executes the create category command
func (h *CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategoryCommand) (*domain.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "is required"}
	}

	category := &domain.Category{
		ID:          uuid.NewString(),
		TenantID:    cmd.TenantID,
		Name:        name,
		Description: cmd.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}
