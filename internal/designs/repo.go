package designs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
)

// Repository wires design persistence to GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new design row.
func (r *Repository) Create(ctx context.Context, design *models.Design) (*models.Design, error) {
	if err := r.db.WithContext(ctx).Create(design).Error; err != nil {
		return nil, err
	}
	return design, nil
}

// Update saves the full design row.
func (r *Repository) Update(ctx context.Context, design *models.Design) (*models.Design, error) {
	if err := r.db.WithContext(ctx).Save(design).Error; err != nil {
		return nil, err
	}
	return design, nil
}

// Delete removes a design by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Design{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads a design row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := r.db.WithContext(ctx).First(&design, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

// ListByUser returns a user's designs, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Design, error) {
	var rows []models.Design
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
