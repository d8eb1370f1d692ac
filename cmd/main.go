// sharemouse - share one pointer between two machines
// A cross-platform cursor sharing tool over UDP, TCP or WebSocket
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sharemouse",
	Short: "Share one mouse between two machines",
	Long: `sharemouse lets the pointer of one machine (the sender) walk off the
edge of its screen onto a second machine (the receiver), as if both screens
were one desktop.

Run "sharemouse receive" on the machine without the mouse and
"sharemouse send" on the machine with it. "sharemouse template" writes a
starter configuration.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sharemouse version %s\n", version)
	},
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
