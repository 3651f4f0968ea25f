package uploads

import (
	"context"

	"gorm.io/gorm"

	"github.com/velvetcharms/storefront-backend/pkg/db/models"
)

// Repository persists upload records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, upload *models.Upload) error
	FindByID(ctx context.Context, id string) (*models.Upload, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an uploads repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, upload *models.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id string) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}
