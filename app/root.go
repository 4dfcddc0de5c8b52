// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "guardpost",
	Short: "guardpost is a REST backend for identity and access management",
	Long: `guardpost is a REST backend providing authentication, user, role and
permission management with role-based access control, media upload and
health checks.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
