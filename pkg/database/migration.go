package database

import (
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationConfig controls schema migration behavior.
type MigrationConfig struct {
	FolderPath string
	// AutoRollback forces a dirty database back to its previous version so a
	// failed migration does not wedge subsequent runs.
	AutoRollback bool
}

// MigrationService applies the SQL migrations under FolderPath to PostgreSQL.
type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

type migrationLogger struct {
	ectologger.Logger
}

func (l migrationLogger) Verbose() bool { return true }

func (l migrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

func (ms *MigrationService) resolveMigrationFolder() string {
	folder := ms.config.FolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	wd, _ := os.Getwd()
	separator := ""
	if wd != "/" {
		separator = "/"
	}
	return wd + separator + folder
}

// Up migrates the database to the latest version.
func (ms *MigrationService) Up(db DB) error {
	folder := ms.resolveMigrationFolder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrapf(err, "migration folder %s does not exist", folder)
	}

	driver, err := migratepg.WithInstance(db.Unsafe().DB, &migratepg.Config{})
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migration driver")
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, "postgres", driver)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = migrationLogger{Logger: ms.logger}

	previous, _, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
	}

	err = m.Up()
	if err == nil {
		ms.logger.Info("Successfully applied migrations")
		return nil
	}
	if err == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	ms.logger.WithError(err).Errorf("Migration failed with error: %v", err)

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get migration version after failure")
		return err
	}
	if dirty && ms.config.AutoRollback {
		if previous == 0 && version > 0 {
			previous = version - 1
		}
		ms.logger.Warnf("Database is dirty at version %d. Reverting to version %d", version, previous)
		if forceErr := m.Force(int(previous)); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to force database to version %d", previous)
		}
	}
	// still return the error even after a rollback to prevent the run from proceeding
	return err
}
