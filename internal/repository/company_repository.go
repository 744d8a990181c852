package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"finhub/internal/model"
)

// CompanyRepository defines company persistence operations.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByCompanyID(ctx context.Context, companyID string) (*model.Company, error)
	// FindByName matches case-insensitively.
	FindByName(ctx context.Context, name string) (*model.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	company.NameKey = NameKey(company.Name)
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) FindByCompanyID(ctx context.Context, companyID string) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByName(ctx context.Context, name string) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("name_key = ?", NameKey(name)).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// NameKey normalizes a company name for the uniqueness index.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
