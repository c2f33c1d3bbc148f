package db

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Options struct {
	Dialect    string
	DSN        string
	SQLitePath string
	MaxOpen    int
	MaxIdle    int
}

// PostgresService owns the shared *gorm.DB handle. Despite the name it also opens SQLite for
// local runs; retrieval then scores in process.
type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger, opts Options) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		theDB *gorm.DB
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Dialect)) {
	case DialectSQLite:
		path := strings.TrimSpace(opts.SQLitePath)
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		theDB, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// SQLite allows one writer; a single connection keeps transactions from tripping
		// over "database is locked".
		opts.MaxOpen = 1
	case "", DialectPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("missing postgres dsn")
		}
		theDB, err = gorm.Open(postgres.Open(opts.DSN), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := theDB.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
			return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported db dialect %q", opts.Dialect)
	}

	if sqlDB, err := theDB.DB(); err == nil {
		if opts.MaxOpen > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpen)
		}
		if opts.MaxIdle > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdle)
		}
	}

	serviceLog.Info("Database connected", "dialect", theDB.Dialector.Name())
	return &PostgresService{db: theDB, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PostgresDSN assembles a URL DSN from discrete settings.
func PostgresDSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}
