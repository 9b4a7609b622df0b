package main

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var output string = "text" // "text" or "json"

var rootCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "BuzzDaddy autopilot CLI - run pipeline stages without the HTTP server",
	Long: `Run the BuzzDaddy autopilot pipeline from the command line.
Configuration is read from ./configs/config.yaml and BUZZ_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(); err != nil {
			return err
		}
		logger.InitLogger(config.Cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(runAllCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
