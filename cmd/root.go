package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string // Log verbosity level

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pvzsim",
	Short: "Discrete-event simulator for order pickup points",
	Long: `pvzsim models an order pickup point during peak hours: customers arrive,
queue for staffed counters or self-service terminals, and are routed either
directly or by a bee-inspired load balancer. Scenarios are replicated over
derived seeds so policy effects can be compared run for run.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up persistent CLI flags and settings resolution
func init() {
	cobra.OnInitialize(initSettings)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default is ./.pvzsim.yaml)")
}
