package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finhub/internal/logger"
	"finhub/internal/model"
)

// Options configures the connection pool and logging.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

// Open returns a connected GORM DB instance. The DSN prefix selects the driver:
// postgres:// or postgresql:// for PostgreSQL, sqlite: or file: for SQLite, anything else is a MySQL DSN.
func Open(dsn string, opts Options, zl *zap.Logger) (*gorm.DB, error) {
	dialector, name := dialectorFor(dsn)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(zl, logger.GormLevel(opts.LogLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	zl.Info("database connected", zap.String("driver", name))
	return db, nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), "postgres"
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), "sqlite"
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), "sqlite"
	default:
		return mysql.Open(withFoundRows(dsn)), "mysql"
	}
}

// withFoundRows makes MySQL report matched rather than changed rows, so an
// update that rewrites identical values is not mistaken for a missing row.
func withFoundRows(dsn string) string {
	if strings.Contains(dsn, "clientFoundRows=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&clientFoundRows=true"
	}
	return dsn + "?clientFoundRows=true"
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Company{},
		&model.User{},
		&model.BankAccount{},
		&model.Transaction{},
		&model.Project{},
		&model.Task{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table, including the project/employee join table.
func Reset(db *gorm.DB, zl *zap.Logger) {
	tables := append([]interface{}{"project_employees"}, reverse(Models())...)
	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			zl.Warn("drop table failed (may not exist)", zap.Error(err))
		}
	}
	zl.Info("tables dropped")
}

func reverse(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
