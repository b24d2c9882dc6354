package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	// DriverNameSQLite identifies the SQLite driver implementation.
	DriverNameSQLite = "sqlite"
	// DriverNamePostgres identifies the PostgreSQL driver implementation.
	DriverNamePostgres = "postgres"

	sqliteBusyTimeoutPragma = "_pragma=busy_timeout(5000)"
	sqlitePragmaParameter   = "_pragma="
)

var (
	// ErrMissingDatabaseDriverName indicates the database driver name configuration was omitted.
	ErrMissingDatabaseDriverName = errors.New("storage: missing database driver name")
	// ErrUnsupportedDatabaseDriver indicates the provided database driver is not supported.
	ErrUnsupportedDatabaseDriver = errors.New("storage: unsupported database driver")
	// ErrMissingDataSourceName indicates the database data source name configuration was omitted.
	ErrMissingDataSourceName = errors.New("storage: missing database data source name")
)

type dialectorFactory func(dataSourceName string) gorm.Dialector

var dialectorFactories = map[string]dialectorFactory{
	DriverNameSQLite:   newSQLiteDialector,
	DriverNamePostgres: newPostgresDialector,
}

// Config captures database connection configuration.
type Config struct {
	DriverName     string
	DataSourceName string
}

// OpenDatabase opens a gorm connection for the configured driver with UTC
// timestamps and driver errors translated to gorm sentinels.
func OpenDatabase(configuration Config) (*gorm.DB, error) {
	driverName := strings.ToLower(strings.TrimSpace(configuration.DriverName))
	if driverName == "" {
		return nil, ErrMissingDatabaseDriverName
	}
	newDialector, supported := dialectorFactories[driverName]
	if !supported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabaseDriver, driverName)
	}

	dataSourceName := strings.TrimSpace(configuration.DataSourceName)
	if dataSourceName == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataSourceName, driverName)
	}

	database, openErr := gorm.Open(newDialector(dataSourceName), &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if openErr != nil {
		return nil, fmt.Errorf("storage: open %s database: %w", driverName, openErr)
	}
	return database, nil
}

// newSQLiteDialector waits on locked databases instead of failing immediately
// unless the data source already sets its own pragmas.
func newSQLiteDialector(dataSourceName string) gorm.Dialector {
	if !strings.Contains(dataSourceName, sqlitePragmaParameter) {
		separator := "?"
		if strings.Contains(dataSourceName, "?") {
			separator = "&"
		}
		dataSourceName += separator + sqliteBusyTimeoutPragma
	}
	return sqlite.Open(dataSourceName)
}

// AutoMigrate runs database migrations for the storage layer models.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(&model.Inventory{}, &model.Booking{}, &model.Payment{})
}

// NewID generates a new globally unique identifier.
func NewID() string {
	return uuid.NewString()
}
