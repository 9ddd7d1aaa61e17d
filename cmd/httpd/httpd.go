// Package httpd implements the command that runs the HTTP API and the crawl scheduler.
package httpd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/roster/cmd/common"
	"github.com/jonesrussell/roster/internal/bootstrap"
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. When crawler.schedule is set the extraction job also runs on
that cron schedule. The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Start(cmd.Context(), viper.GetString(common.FlagConfig), viper.GetBool(common.FlagDebug))
		},
	}
}
