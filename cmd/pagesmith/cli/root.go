package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// buildVersion is the version string passed at startup, used by the serve
// command's telemetry heartbeat.
var buildVersion = "dev"

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	buildVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagesmith",
		Short: "Authenticated page-creation API with signed webhooks",
		Long: `Pagesmith exposes a page-creation API guarded by API keys and short-lived
signed tokens, with per-key rate limiting, audit logging, and signed webhook
notifications delivered with bounded retries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pagesmith.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store (default: ~/.pagesmith)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newPagesCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pagesmith")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.pagesmith")
	}

	viper.SetEnvPrefix("PAGESMITH")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
