// Package cmd implements the ecopolicy command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sustainabot/ecopolicy/internal/config"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables debug logging.
	verbose bool
	// appConfig is the resolved configuration, populated by initConfig.
	appConfig *config.AppConfig
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "ecopolicy",
	Short:   "Hybrid eco policy reasoning over code metrics",
	Version: version,
	Long: `ecopolicy evaluates code entities against sustainability and economic
policies by combining deterministic rule evaluation with probabilistic
prediction, and learns from recorded real-world outcomes.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .ecopolicy.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// initConfig resolves configuration and logging before any command runs.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	appConfig = cfg

	level := slog.LevelInfo
	if verbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
