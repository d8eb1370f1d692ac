package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sharemouse/internal/api"
	"sharemouse/internal/config"
	"sharemouse/internal/input/osinput"
	"sharemouse/internal/session"
	"sharemouse/internal/tray"
)

var (
	sendConfig string
	sendTray   bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Capture this machine's pointer and forward it",
	Long: `Capture the local pointer and hand it to the receiver whenever it
crosses the configured screen edge. While the receiver owns the pointer the
local cursor is parked in the middle of the screen.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendConfig, "config", "c", "", "Config file (default: per-user config path)")
	sendCmd.Flags().BoolVar(&sendTray, "tray", false, "Show the pointer owner in the system tray")
}

func configPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return config.DefaultPath()
}

func runSend(cmd *cobra.Command, args []string) error {
	path, err := configPath(sendConfig)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	host, err := session.NewHost(cfg, osinput.SystemPointer())
	if err != nil {
		return err
	}
	log.Printf("Config: %dx%d %s of %dx%d, %s via %s",
		cfg.Screen.Width, cfg.Screen.Height, cfg.Layout.Position,
		cfg.RemoteScreen.Width, cfg.RemoteScreen.Height, cfg.MoveMode, cfg.Protocol)

	if addr := cfg.StatusAddr(); addr != "" {
		status := api.NewServer(func() any { return host.Status() }, cfg.APIToken)
		if err := status.Start(addr); err != nil {
			return fmt.Errorf("status api: %w", err)
		}
		defer status.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !sendTray {
		return host.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New("sharemouse", cancel)
	host.OnSwitch(t.SetOwner)

	errc := make(chan error, 1)
	go func() {
		errc <- host.Run(ctx)
		t.Stop()
	}()

	// The tray loop must own the main goroutine
	t.Run()
	cancel()
	return <-errc
}
