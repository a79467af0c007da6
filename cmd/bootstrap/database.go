package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/config"
)

// Options database setup options
type Options struct {
	// InitSQLPath optional SQL file executed before migrations
	InitSQLPath string
	// AutoMigrate run schema migrations
	AutoMigrate bool
	// SeedDemoData seed demo enrollments when APP_ENV is an explicit
	// dev value; an unset APP_ENV never seeds
	SeedDemoData bool
}

// SetupDatabase opens the database, runs init SQL, migrations and seeds
func SetupDatabase(w io.Writer, opts *Options) (*gorm.DB, error) {
	if opts == nil {
		opts = &Options{AutoMigrate: true}
	}

	db, err := initDBConn(w)
	if err != nil {
		return nil, err
	}

	if opts.InitSQLPath != "" {
		if err := RunInitSQL(db, opts.InitSQLPath); err != nil {
			return nil, err
		}
	}

	if opts.AutoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}

	if opts.SeedDemoData && isDevEnv(os.Getenv("APP_ENV")) {
		service := SeedService{db: db}
		if err := service.SeedAll(); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// isDevEnv reports whether env opts into demo seeding
func isDevEnv(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development":
		return true
	default:
		return false
	}
}

func initDBConn(w io.Writer) (*gorm.DB, error) {
	driver := strings.ToLower(config.GlobalConfig.Database.Driver)
	dsn := config.GlobalConfig.Database.DSN

	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	gormCfg := &gorm.Config{
		Logger: gormlogger.New(
			logWriter{w},
			gormlogger.Config{LogLevel: gormlogger.Warn},
		),
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

type logWriter struct {
	w io.Writer
}

func (l logWriter) Printf(format string, args ...interface{}) {
	if l.w != nil {
		fmt.Fprintf(l.w, format+"\n", args...)
	}
}

// RunInitSQL executes statements from a SQL file, skipping comments
func RunInitSQL(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var current strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			if err := db.Exec(current.String()).Error; err != nil {
				return fmt.Errorf("exec init sql: %w", err)
			}
			current.Reset()
		}
	}

	// Trailing statement without a semicolon
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("exec init sql: %w", err)
		}
	}
	return nil
}

// RunMigrations runs schema migrations for all models
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}
	return db.AutoMigrate(
		&models.Enrollment{},
	)
}
