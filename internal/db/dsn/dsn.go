// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/guardpost/guardpost/internal/config"
)

// Create builds the postgres Data Source Name from the configuration.
func Create(dbCfg *config.Config) string {
	sslMode := dbCfg.DB.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	out := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		dbCfg.DB.Host,
		dbCfg.DB.User,
		dbCfg.DB.Password,
		dbCfg.DB.Name,
		dbCfg.DB.Port,
		sslMode,
	)

	return out
}
