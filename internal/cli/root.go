package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "hubber",
	Short: "GitHub issue and label workflow from the terminal",
	Long: `Hubber drives a lightweight issue-and-branch workflow on GitHub:
create an issue, start working on it in a branch, save your work,
open a pull request, and keep labels in sync across repositories.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		noInput, _ := cmd.Flags().GetBool("no-input")

		log.SetDefault(newLogger(verbose))
		if noInput {
			ui.DisableInput()
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the command tree with ctx, which commands use for
// every remote call.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "hubber"})
	logger.SetLevel(log.WarnLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if env := os.Getenv("HUBBER_LOG_LEVEL"); env != "" {
		if level, err := log.ParseLevel(env); err == nil {
			logger.SetLevel(level)
		}
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().Bool("dry-run", false, "Preview operations without executing")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-input", false, "Never prompt; missing values become errors")
	rootCmd.PersistentFlags().String("config", "", "Configuration directory (default $XDG_CONFIG_HOME/hubber)")
}
