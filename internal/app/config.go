package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	dbpkg "github.com/yungbote/ottolearn-tutor/internal/data/db"
	"github.com/yungbote/ottolearn-tutor/internal/observability"
)

type Config struct {
	LogMode     string
	Port        string
	Environment string

	DB dbpkg.Options

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIEmbedModel string
	OpenAITimeout    time.Duration
	OpenAIMaxRetries int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisUsageStream string
	RedisStreamMax   int64

	JWTSecretKey string
	JWTIssuer    string
	CORSOrigins  []string

	RequestTimeout   time.Duration
	UsageQueueSize   int
	InsertBatchSize  int
	EmbedBatchSize   int
	EmbedConcurrency int

	Otel observability.OtelConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "local")

	v.SetDefault("DB_DIALECT", dbpkg.DialectPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "ottolearn")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_EMBED_MODEL", "text-embedding-3-small")
	v.SetDefault("OPENAI_TIMEOUT_SECONDS", 60)
	v.SetDefault("OPENAI_MAX_RETRIES", 0)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_USAGE_STREAM", "tutor:rag_usage")
	v.SetDefault("REDIS_USAGE_STREAM_MAXLEN", 100000)

	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 90)
	v.SetDefault("USAGE_QUEUE_SIZE", 1024)
	v.SetDefault("INGEST_BATCH_SIZE", 50)
	v.SetDefault("INGEST_EMBED_BATCH_SIZE", 64)
	v.SetDefault("INGEST_EMBED_CONCURRENCY", 4)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ottolearn-tutor")
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
}

// NewViper returns a viper instance reading the environment and, when configFile is set,
// a YAML/JSON file whose keys match the environment variable names.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configFile, err)
		}
	}
	return v, nil
}

func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		LogMode:     v.GetString("LOG_MODE"),
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),

		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:    v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:      v.GetString("OPENAI_MODEL"),
		OpenAIEmbedModel: v.GetString("OPENAI_EMBED_MODEL"),
		OpenAITimeout:    time.Duration(v.GetInt("OPENAI_TIMEOUT_SECONDS")) * time.Second,
		OpenAIMaxRetries: v.GetInt("OPENAI_MAX_RETRIES"),

		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		RedisUsageStream: v.GetString("REDIS_USAGE_STREAM"),
		RedisStreamMax:   v.GetInt64("REDIS_USAGE_STREAM_MAXLEN"),

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		JWTIssuer:    v.GetString("JWT_ISSUER"),
		CORSOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		RequestTimeout:   time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		UsageQueueSize:   v.GetInt("USAGE_QUEUE_SIZE"),
		InsertBatchSize:  v.GetInt("INGEST_BATCH_SIZE"),
		EmbedBatchSize:   v.GetInt("INGEST_EMBED_BATCH_SIZE"),
		EmbedConcurrency: v.GetInt("INGEST_EMBED_CONCURRENCY"),

		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: v.GetString("ENVIRONMENT"),
			Version:     v.GetString("SERVICE_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			Headers:     observability.ParseHeaders(v.GetString("OTEL_EXPORTER_OTLP_HEADERS")),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
		},
	}

	dsn := strings.TrimSpace(v.GetString("POSTGRES_DSN"))
	if dsn == "" {
		dsn = dbpkg.PostgresDSN(
			v.GetString("POSTGRES_HOST"),
			v.GetString("POSTGRES_PORT"),
			v.GetString("POSTGRES_USER"),
			v.GetString("POSTGRES_PASSWORD"),
			v.GetString("POSTGRES_NAME"),
			v.GetString("POSTGRES_SSLMODE"),
		)
	}
	cfg.DB = dbpkg.Options{
		Dialect:    strings.ToLower(strings.TrimSpace(v.GetString("DB_DIALECT"))),
		DSN:        dsn,
		SQLitePath: v.GetString("SQLITE_PATH"),
		MaxOpen:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdle:    v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Dialect {
	case dbpkg.DialectPostgres, dbpkg.DialectSQLite:
	default:
		return fmt.Errorf("DB_DIALECT must be %q or %q, got %q", dbpkg.DialectPostgres, dbpkg.DialectSQLite, c.DB.Dialect)
	}
	if c.OpenAIMaxRetries < 0 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be >= 0")
	}
	if c.InsertBatchSize <= 0 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be > 0")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
