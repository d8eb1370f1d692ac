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
	"sharemouse/internal/network"
	"sharemouse/internal/osutils"
	"sharemouse/internal/session"
)

var (
	receivePort       uint16
	receiveConfig     string
	receiveProtocol   string
	receiveBufferSize int
	receiveFirewall   bool
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive pointer events and inject them locally",
	RunE:  runReceive,
}

func init() {
	receiveCmd.Flags().Uint16VarP(&receivePort, "port", "p", config.DefaultPort, "Port to listen on")
	receiveCmd.Flags().StringVarP(&receiveConfig, "config", "c", "", "Optional config file for protocol and buffer size")
	receiveCmd.Flags().StringVar(&receiveProtocol, "protocol", "udp", "Transport: udp, tcp or websocket")
	receiveCmd.Flags().IntVar(&receiveBufferSize, "buffer-size", network.DefaultBufferSize, "Largest accepted packet in bytes")
	receiveCmd.Flags().BoolVar(&receiveFirewall, "open-firewall", false, "Add an inbound firewall rule for the port (Windows)")
}

func runReceive(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if receiveConfig != "" {
		loaded, err := config.Load(receiveConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// flags win over the file
	flags := cmd.Flags()
	port := cfg.ListenPort
	if flags.Changed("port") || port == 0 {
		port = receivePort
	}
	if flags.Changed("protocol") {
		p, err := network.ParseProtocol(receiveProtocol)
		if err != nil {
			return err
		}
		cfg.Protocol = p
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = receiveBufferSize
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if receiveFirewall {
		transport, err := osutils.Transport(cfg.Protocol.String())
		if err != nil {
			return err
		}
		if err := osutils.EnsureFirewallRule(int(port), transport); err != nil {
			log.Warnf("Firewall: %v", err)
		}
	}

	agent := session.NewAgent(cfg.Protocol, fmt.Sprintf(":%d", port), cfg.BufferSize, osinput.NewSystemInjector())
	if addr := cfg.StatusAddr(); addr != "" {
		status := api.NewServer(func() any { return agent.Status() }, cfg.APIToken)
		if err := status.Start(addr); err != nil {
			return fmt.Errorf("status api: %w", err)
		}
		defer status.Stop()
	}

	if err := agent.Start(); err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	log.Printf("Agent: receiving %s events on port %d", cfg.Protocol, port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return agent.Run(ctx)
}
