package main

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sharemouse/internal/autostart"
)

var autostartConfig string

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting sharemouse at login",
}

var autostartEnableCmd = &cobra.Command{
	Use:       "enable <send|receive>",
	Short:     "Start sharemouse in the given role at login",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"send", "receive"},
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := autostart.NewEntry(autostartArgs(args[0], autostartConfig)...)
		if err != nil {
			return err
		}
		if err := autostart.Enable(entry); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}
		log.Printf("Autostart enabled: %s", entry.CommandLine())
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting sharemouse at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("disable autostart: %w", err)
		}
		log.Print("Autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether sharemouse starts at login",
	Run: func(cmd *cobra.Command, args []string) {
		if autostart.IsEnabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "enabled")
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "disabled")
	},
}

// autostartArgs builds the login command line. The config path is made
// absolute since login items start in an unrelated working directory.
func autostartArgs(role, config string) []string {
	args := []string{role}
	if config == "" {
		return args
	}
	if abs, err := filepath.Abs(config); err == nil {
		config = abs
	}
	return append(args, "--config", config)
}

func init() {
	autostartEnableCmd.Flags().StringVarP(&autostartConfig, "config", "c", "", "Config file passed to the started command")

	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
}
