package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dbpkg "github.com/yungbote/ottolearn-tutor/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.DB.Dialect != dbpkg.DialectPostgres {
		t.Fatalf("defaults: port=%q dialect=%q", cfg.Port, cfg.DB.Dialect)
	}
	if cfg.OpenAIMaxRetries != 0 || cfg.InsertBatchSize != 50 {
		t.Fatalf("retries=%d batch=%d", cfg.OpenAIMaxRetries, cfg.InsertBatchSize)
	}
	if !strings.HasPrefix(cfg.DB.DSN, "postgres://") {
		t.Fatalf("dsn: %q", cfg.DB.DSN)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DB_DIALECT", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/tutor.db")
	t.Setenv("OPENAI_TIMEOUT_SECONDS", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-key=abc")

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Dialect != dbpkg.DialectSQLite || cfg.DB.SQLitePath != "/tmp/tutor.db" {
		t.Fatalf("db: %+v", cfg.DB)
	}
	if cfg.OpenAITimeout != 12*time.Second {
		t.Fatalf("timeout: %v", cfg.OpenAITimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins: %v", cfg.CORSOrigins)
	}
	if cfg.Otel.Headers["x-key"] != "abc" {
		t.Fatalf("headers: %v", cfg.Otel.Headers)
	}
}

func TestLoadConfigFileAndExplicitDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	body := "PORT: \"9090\"\nPOSTGRES_DSN: postgres://u:p@db:5432/tutor\nINGEST_BATCH_SIZE: 25\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.DB.DSN != "postgres://u:p@db:5432/tutor" || cfg.InsertBatchSize != 25 {
		t.Fatalf("cfg: port=%q dsn=%q batch=%d", cfg.Port, cfg.DB.DSN, cfg.InsertBatchSize)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"DB_DIALECT":         "mysql",
		"OPENAI_MAX_RETRIES": "-1",
		"INGEST_BATCH_SIZE":  "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			v, err := NewViper("")
			if err != nil {
				t.Fatalf("NewViper: %v", err)
			}
			if _, err := LoadConfig(v); err == nil {
				t.Fatalf("%s=%s accepted", key, val)
			}
		})
	}
}

func TestNewViperMissingFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing explicit config file should fail")
	}
}
