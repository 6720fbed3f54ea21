package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

// Options selects and tunes the storage backend.
type Options struct {
	Driver   config.DatabaseDriver
	Path     string
	DSN      string
	LogLevel string
	Log      *logger.Logger
}

// OptionsFromConfig maps the database section of the application config.
func OptionsFromConfig(cfg config.Database, log *logger.Logger) Options {
	return Options{
		Driver:   cfg.Driver,
		Path:     cfg.Path,
		DSN:      cfg.DSN,
		LogLevel: cfg.LogLevel,
		Log:      log,
	}
}

func NewDatabase(opts Options) (*Database, error) {
	log := logger.OrNop(opts.Log)

	dialector, err := openDialector(opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(parseLogLevel(opts.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialized", "driver", driverName(opts.Driver), "target", describeTarget(opts))

	return &Database{DB: db, Driver: opts.Driver}, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Package{},
		&entities.Section{},
		&entities.Item{},
		&entities.Check{},
		&entities.Setting{},
		&entities.PracticeSession{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openDialector(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case config.DatabaseDriverPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		return postgres.Open(opts.DSN), nil
	case config.DatabaseDriverSQLite, "":
		path := opts.Path
		if path == "" {
			path = config.DefaultDatabasePath
		}
		return sqlite.Open(SQLiteDSN(path)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// SQLiteDSN enables foreign keys and a busy timeout on a sqlite file path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_busy_timeout=%d", path, sep, (5 * time.Second).Milliseconds())
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func driverName(d config.DatabaseDriver) string {
	if d == "" {
		return string(config.DatabaseDriverSQLite)
	}
	return string(d)
}

func describeTarget(opts Options) string {
	if opts.Driver == config.DatabaseDriverPostgres {
		return "postgres"
	}
	if opts.Path == "" {
		return config.DefaultDatabasePath
	}
	return opts.Path
}
