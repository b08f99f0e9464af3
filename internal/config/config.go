package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	TOC       TOCConfig       `yaml:"toc"`
	Database  DatabaseConfig  `yaml:"database"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Compiler  CompilerConfig  `yaml:"compiler"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// RateLimitConfig holds per-IP request limits. Burst caps how many requests a
// client may make at once; 0 means PerMinute.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	PerMinute       int           `yaml:"per_minute"       env:"RATE_LIMIT_PER_MINUTE"       env-default:"120"`
	Burst           int           `yaml:"burst"            env:"RATE_LIMIT_BURST"            env-default:"0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// BurstSize returns Burst, or PerMinute when no burst is configured.
func (c RateLimitConfig) BurstSize() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return c.PerMinute
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// TOC sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// TOCConfig selects where the table of contents is loaded from.
type TOCConfig struct {
	Source string `yaml:"source" env:"TOC_SOURCE" env-default:"file"`
	Dir    string `yaml:"dir"    env:"TOC_DIR"    env-default:"./corpus"`
}

// DatabaseConfig holds PostgreSQL connection settings. It is only used when
// the table of contents is stored in PostgreSQL.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"commonprayer"`
}

// CalendarConfig points at the liturgical calendar service.
type CalendarConfig struct {
	BaseURL string        `yaml:"base_url" env:"CALENDAR_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"CALENDAR_TIMEOUT"  env-default:"10s"`
	Default string        `yaml:"default"  env:"CALENDAR_DEFAULT"  env-default:"bcp1979"`
}

// CompilerConfig points at the document compiler service.
type CompilerConfig struct {
	BaseURL string        `yaml:"base_url" env:"COMPILER_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"COMPILER_TIMEOUT"  env-default:"15s"`
}

// CacheConfig configures the compiled-document cache. An empty URL disables it.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" env:"CACHE_REDIS_URL"`
	TTL      time.Duration `yaml:"ttl"       env:"CACHE_TTL"       env-default:"6h"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return c.RedisURL != "" }

// SearchConfig configures Meilisearch. An empty URL selects in-memory search.
type SearchConfig struct {
	MeiliURL    string `yaml:"meili_url"     env:"SEARCH_MEILI_URL"`
	MeiliAPIKey string `yaml:"meili_api_key" env:"SEARCH_MEILI_API_KEY"`
	Index       string `yaml:"index"         env:"SEARCH_INDEX"         env-default:"commonprayer_documents"`
}

// Enabled reports whether Meilisearch is configured.
func (c SearchConfig) Enabled() bool { return c.MeiliURL != "" }

// AuthConfig holds the admin token settings. An empty secret disables the
// admin endpoints.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"commonprayer"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"1h"`
}

// AdminEnabled reports whether admin endpoints are served.
func (c AuthConfig) AdminEnabled() bool { return c.JWTSecret != "" }

// MCP transports.
const (
	MCPTransportStdio = "stdio"
	MCPTransportHTTP  = "http"
)

// MCPConfig holds settings for the MCP tool server.
type MCPConfig struct {
	Transport    string `yaml:"transport"     env:"MCP_TRANSPORT"     env-default:"stdio"`
	Addr         string `yaml:"addr"          env:"MCP_ADDR"          env-default:":8090"`
	EndpointPath string `yaml:"endpoint_path" env:"MCP_ENDPOINT_PATH" env-default:"/mcp"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
