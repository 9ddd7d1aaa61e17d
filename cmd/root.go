// Package cmd implements the roster command-line interface.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/roster/cmd/common"
	"github.com/jonesrussell/roster/cmd/contacts"
	"github.com/jonesrussell/roster/cmd/crawl"
	"github.com/jonesrussell/roster/cmd/httpd"
)

// Version is set at build time with -ldflags "-X github.com/jonesrussell/roster/cmd.Version=...".
var Version = "dev"

// NewRootCommand builds the roster command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "roster",
		Short:         "Crawl a member directory into a searchable contact store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String(common.FlagConfig, "", "config file (default is $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().Bool(common.FlagDebug, false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roster version %s\n", Version)
		},
	})
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(contacts.Command())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := initConfig(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

// initConfig binds the global flags to viper so ROSTER_CONFIG and ROSTER_DEBUG work as well.
func initConfig(rootCmd *cobra.Command) error {
	viper.SetEnvPrefix("ROSTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for _, name := range []string{common.FlagConfig, common.FlagDebug} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", name, err)
		}
	}
	return nil
}
