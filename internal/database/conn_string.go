package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/tickersense/internal/config"
)

// BuildConnString builds a PostgreSQL connection URL from config. A non-empty
// appName is reported to the server as application_name.
func BuildConnString(cfg config.DBConfig, appName string) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	params := url.Values{}
	params.Set("sslmode", sslMode)
	if appName != "" {
		params.Set("application_name", appName)
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		params.Encode(),
	)
}
