package cmd

import (
	"fmt"

	"gst-reconciler/cmd/reconciler/config"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "GST invoice ledger reconciliation tool",
	Long: `Reconciler compares the firm's purchase ledger with the invoices
downloaded from the GST portal. Invoices are matched per supplier GSTIN, first
by invoice number and then by invoice date and tax total within a buffer.
Matched and unmatched firm invoices are written to an Excel workbook.

Examples:
  reconciler reconcile --firm books.xlsx --portal gstr2b.xlsx --output reco.xlsx --buffer 10
  reconciler reconcile --interactive
  reconciler version`,
	Version:           getVersionString(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file with column names, date formats and sheet names (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "text", "log format: text, json")
	rootCmd.PersistentFlags().String(config.KeyLogFile, "", "write logs to this file instead of stderr")

	// Bind flags to viper
	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup(config.KeyLogFormat))
	viper.BindPFlag(config.KeyLogFile, rootCmd.PersistentFlags().Lookup(config.KeyLogFile))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in the .env file, the config file and ENV variables.
func initConfig() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	config.Configure(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setupLogging reads the config file, if any, and installs the global logger
func setupLogging(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("check the config file path and its syntax")
		}
	}

	logConfig, err := config.CreateLoggerConfig(
		viper.GetBool(config.KeyVerbose),
		viper.GetString(config.KeyLogFormat),
		viper.GetString(config.KeyLogFile),
	)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)

	if cfgFile != "" {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reconciler %s\n", getVersionString())
	},
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
