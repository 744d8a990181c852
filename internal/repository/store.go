package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories that share one database handle. Inside
// WithTransaction every repository obtained from the callback's Store runs on
// the same database transaction.
type Store interface {
	Users() UserRepository
	Companies() CompanyRepository
	Banks() BankRepository
	Transactions() TransactionRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	// WithTransaction executes fn within a database transaction. A non-nil error
	// from fn rolls back every write made through the callback's Store.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository               { return &userRepository{db: s.db} }
func (s *gormStore) Companies() CompanyRepository        { return &companyRepository{db: s.db} }
func (s *gormStore) Banks() BankRepository               { return &bankRepository{db: s.db} }
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepository{db: s.db} }
func (s *gormStore) Projects() ProjectRepository         { return &projectRepository{db: s.db} }
func (s *gormStore) Tasks() TaskRepository               { return &taskRepository{db: s.db} }

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// updateRow writes every column of value by primary key. It never inserts:
// a row that no longer exists yields gorm.ErrRecordNotFound.
func updateRow(db *gorm.DB, value interface{}) error {
	res := db.Model(value).Select("*").Omit(clause.Associations).Updates(value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
