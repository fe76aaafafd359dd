package designs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
)

// Service defines owner-scoped design operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]DesignDTO, error)
	Get(ctx context.Context, userID, designID uuid.UUID) (*DesignDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateDesignRequest) (*DesignDTO, error)
	Update(ctx context.Context, userID, designID uuid.UUID, req UpdateDesignRequest) (*DesignDTO, error)
	Delete(ctx context.Context, userID, designID uuid.UUID) error
}

type designRepository interface {
	Create(ctx context.Context, design *models.Design) (*models.Design, error)
	Update(ctx context.Context, design *models.Design) (*models.Design, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Design, error)
}

type service struct {
	repo designRepository
}

// NewService builds the design service.
func NewService(repo designRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("design repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]DesignDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list designs")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, userID, designID uuid.UUID) (*DesignDTO, error) {
	design, err := s.findOwned(ctx, userID, designID)
	if err != nil {
		return nil, err
	}
	return FromModel(design), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateDesignRequest) (*DesignDTO, error) {
	design := &models.Design{
		UserID:     userID,
		ProductID:  req.ProductID,
		Name:       strings.TrimSpace(req.Name),
		Payload:    req.Payload,
		PreviewURL: req.PreviewURL,
	}
	created, err := s.repo.Create(ctx, design)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create design")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, userID, designID uuid.UUID, req UpdateDesignRequest) (*DesignDTO, error) {
	design, err := s.findOwned(ctx, userID, designID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		design.Name = strings.TrimSpace(*req.Name)
	}
	if req.ProductID != nil {
		design.ProductID = req.ProductID
	}
	if req.Payload != nil {
		design.Payload = req.Payload
	}
	if req.PreviewURL != nil {
		design.PreviewURL = req.PreviewURL
	}

	updated, err := s.repo.Update(ctx, design)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update design")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, userID, designID uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, designID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, designID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete design")
	}
	return nil
}

// findOwned resolves a design and hides other users' rows behind not-found.
func (s *service) findOwned(ctx context.Context, userID, designID uuid.UUID) (*models.Design, error) {
	design, err := s.repo.FindByID(ctx, designID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	if design.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	return design, nil
}
