// Package commands wires the docreport CLI.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zonewatch/docreport/cmd/docreport/ui"
	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
	"github.com/zonewatch/docreport/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "docreport",
	Short: "Generate summary reports from PDF documents",
	Long: `docreport turns source PDFs into structured summary reports: text and
embedded images are extracted, a language model writes the report in a
constrained markup, and the result is laid out as a paginated PDF. The chat
command answers questions about previously generated reports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the root logger shared by commands.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	ui.Init(noColor)
	log := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return cfg, log, nil
}

// requireAPIKey fails early when no credential is configured.
func requireAPIKey(cfg *config.Config) error {
	if cfg.LLM.APIKey == "" {
		return domain.ConfigError("OPENROUTER_API_KEY is not set", nil)
	}
	return nil
}
