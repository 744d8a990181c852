package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finhub/internal/model"
)

// ProjectRepository defines project persistence operations. Archived projects
// are invisible to every lookup.
type ProjectRepository interface {
	// Create inserts the project and links its Employees.
	Create(ctx context.Context, project *model.Project) error
	// Update saves scalar fields; when employees is non-nil the membership is replaced.
	Update(ctx context.Context, project *model.Project, employees []model.User) error
	FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.Project, error)
	// ListByCompany returns all live projects, or only those where memberID is
	// head or employee when memberID is not uuid.Nil.
	ListByCompany(ctx context.Context, companyID string, memberID uuid.UUID) ([]model.Project, error)
	Archive(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(project).Error; err != nil {
		return err
	}
	if len(project.Employees) == 0 {
		return nil
	}
	return db.Model(project).Association("Employees").Replace(project.Employees)
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project, employees []model.User) error {
	db := r.db.WithContext(ctx)
	if err := updateRow(db, project); err != nil {
		return err
	}
	if employees == nil {
		return nil
	}
	assoc := db.Model(project).Association("Employees")
	if len(employees) == 0 {
		if err := assoc.Clear(); err != nil {
			return err
		}
	} else if err := assoc.Replace(employees); err != nil {
		return err
	}
	project.Employees = employees
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.preloaded(ctx).
		Where("id = ? AND company_id = ? AND is_archived = ?", id, companyID, false).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByCompany(ctx context.Context, companyID string, memberID uuid.UUID) ([]model.Project, error) {
	q := r.preloaded(ctx).Where("company_id = ? AND is_archived = ?", companyID, false)
	if memberID != uuid.Nil {
		q = q.Where(
			"(head_id = ? OR id IN (?))",
			memberID,
			r.db.Table("project_employees").Select("project_id").Where("user_id = ?", memberID),
		)
	}

	var projects []model.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", id).
		Update("is_archived", true).Error
}

func (r *projectRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Head").
		Preload("Employees").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Tasks.Assignee")
}
