package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	var errs []error

	switch c.TOC.Source {
	case SourceFile:
		if strings.TrimSpace(c.TOC.Dir) == "" {
			errs = append(errs, fmt.Errorf("toc.dir is required for the file source"))
		}
	case SourcePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for the postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("toc.source must be %q or %q (got %q)", SourceFile, SourcePostgres, c.TOC.Source))
	}

	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns))
	}

	if err := validateURL("calendar.base_url", c.Calendar.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if !domain.CalendarID(c.Calendar.Default).IsValid() {
		errs = append(errs, fmt.Errorf("calendar.default: unknown calendar %q", c.Calendar.Default))
	}
	if err := validateURL("compiler.base_url", c.Compiler.BaseURL); err != nil {
		errs = append(errs, err)
	}

	if c.Cache.Enabled() && c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be > 0 (got %s)", c.Cache.TTL))
	}
	if c.Search.Enabled() {
		if err := validateURL("search.meili_url", c.Search.MeiliURL); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Auth.AdminEnabled() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret)))
	}

	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.per_minute must be > 0 (got %d)", c.RateLimit.PerMinute))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must be >= 0 (got %d)", c.RateLimit.Burst))
	}

	switch c.MCP.Transport {
	case MCPTransportStdio, MCPTransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("mcp.transport must be %q or %q (got %q)", MCPTransportStdio, MCPTransportHTTP, c.MCP.Transport))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", field, raw)
	}
	return nil
}
