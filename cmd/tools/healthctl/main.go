// Command healthctl drives the health assistant and the form rules from a
// terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/logging"
)

var (
	// Global flags
	verbose bool
	timeout time.Duration

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "healthctl",
	Short: "Talk to the health assistant and check meal-plan inputs",
	Long: `healthctl runs the assistant conversation, the calorie estimate and the
form validation rules outside the browser.

The assistant endpoint is taken from --base-url or ASSISTANT_BASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, true)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Assistant request timeout")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
