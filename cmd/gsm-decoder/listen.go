package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gsm-decoder/internal/config"
	"gsm-decoder/internal/network"
)

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Decode a live GSMTAP feed received over UDP",
		Long: `Bind a UDP socket and decode every datagram as GSMTAP until interrupted.
Each sender address is one flow. Flows are flushed and the statistics are
printed on SIGINT or SIGTERM.`,
		RunE: runListen,
	}
	cmd.Flags().String("address", "", "Local address to listen on")
	cmd.Flags().Int("port", 0, "Local UDP port to listen on")
	return cmd
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	banner(cfg)

	if err := cfg.Validate(config.ModeListen); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// datagrams arrive on the listen port, so that is where GSMTAP is probed
	s, err := newSession(ctx, cfg, statsOnly, cfg.Listen.Port)
	if err != nil {
		return err
	}
	defer s.close()

	receiver, err := network.Listen(cfg.Listen.Address, cfg.Listen.Port)
	if err != nil {
		return fmt.Errorf("failed to start receiver: %w", err)
	}
	receiver.Start(ctx)
	log.WithField("local_addr", receiver.LocalAddr()).Info("Listening for GSMTAP")

	if err := s.pipeline.Run(ctx, receiver.Packets()); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to decode live feed: %w", err)
	}
	fmt.Printf("\nDecoded %d packets\n\n", s.pipeline.Packets())

	return s.finish()
}
