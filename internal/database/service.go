package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService implements Service on top of go-sqlite3.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, use DB(), Close.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{logger: logger}
}

// Connect opens (and creates if needed) the database file
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if err := config.Validate(); err != nil {
		return shellerrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	if !config.IsInMemory() {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return shellerrors.WrapStorageError("Connect", err, map[string]string{"path": config.Path})
		}
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return shellerrors.WrapStorageError("Connect", fmt.Errorf("failed to open database: %w", err), nil)
	}

	// The preference store is low-traffic and single-writer; one connection
	// also keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return shellerrors.WrapStorageError("Connect", fmt.Errorf("failed to ping database: %w", err), map[string]string{
			"path": config.Path,
		})
	}

	s.db = db
	s.config = config
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to preference database", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return shellerrors.WrapStorageError("Close", err, nil)
	}

	s.db = nil
	s.migrationRunner = nil
	s.logger.Debug("Closed preference database")
	return nil
}

// Migrate validates and applies the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return shellerrors.WrapStorageError("Migrate", fmt.Errorf("database not connected"), nil)
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return shellerrors.WrapStorageError("Migrate", err, map[string]string{"phase": "validation"})
	}

	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return shellerrors.WrapStorageError("Migrate", err, map[string]string{"phase": "execution"})
	}

	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return shellerrors.WrapStorageError("Health", fmt.Errorf("database not connected"), nil)
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return shellerrors.WrapStorageError("Health", err, map[string]string{"phase": "query"})
	}
	return nil
}

// DB returns the underlying connection
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, shellerrors.WrapStorageError("GetMigrationVersion", fmt.Errorf("database not connected"), nil)
	}
	return s.migrationRunner.GetCurrentVersion(ctx)
}
