package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is usable for the given mode.
// Modes: "collect" (full pipeline), "serve" (HTTP API), "query" (read-only
// store access).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	switch mode {
	case "collect":
		if c.Registry.BaseURL == "" {
			problems = append(problems, "registry.base_url is required")
		}
		if c.HSCT.BaseURL == "" {
			problems = append(problems, "hsct.base_url is required")
		}
		if c.Registry.RateLimitRPS <= 0 {
			problems = append(problems, "registry.rate_limit_rps must be > 0")
		}
		if c.Collect.PageSize < 1 || c.Collect.PageSize > 100 {
			problems = append(problems, "collect.page_size must be between 1 and 100")
		}
		if c.Collect.SecondaryDelaySecs < 0 {
			problems = append(problems, "collect.secondary_delay_secs must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Registry.BaseURL == "" {
			problems = append(problems, "registry.base_url is required")
		}
	case "query":
		// store checks above are sufficient
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
