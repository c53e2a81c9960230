package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gsm-decoder/internal/config"
	"gsm-decoder/internal/network"
	"gsm-decoder/internal/pcap"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send the GSMTAP payloads of a capture to a UDP target",
		Long: `Read a capture, keep the UDP payloads that start with a GSMTAP header and
send them in capture order to a decoder or monitor listening on UDP.`,
		RunE: runReplay,
	}
	cmd.Flags().String("target", "", "Target IP address")
	cmd.Flags().Int("target-port", 0, "Target UDP port")
	cmd.Flags().Int("interval", -1, "Delay between packets in ms")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	banner(cfg)

	if err := cfg.Validate(config.ModeReplay); err != nil {
		return err
	}

	parser := pcap.NewParser(cfg.Input.SCTP)
	packets, err := parser.Parse(cfg.Input.PcapFile)
	if err != nil {
		return fmt.Errorf("failed to parse pcap: %w", err)
	}
	if len(packets) == 0 {
		return fmt.Errorf("no UDP or SCTP payloads found in pcap file")
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := network.NewUDPClient("", 0, cfg.Replay.Address, cfg.Replay.Port)
	if err != nil {
		return fmt.Errorf("failed to create UDP client: %w", err)
	}
	defer client.Close()

	log.WithFields(log.Fields{
		"local_addr": client.LocalAddr(),
		"target":     fmt.Sprintf("%s:%d", cfg.Replay.Address, cfg.Replay.Port),
	}).Info("UDP client started")

	interval := time.Duration(cfg.Replay.IntervalMs) * time.Millisecond
	sent, err := client.Replay(ctx, packets, interval)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Replay interrupted by shutdown")
		} else {
			return fmt.Errorf("replay failed: %w", err)
		}
	}

	fmt.Printf("Replayed %d GSMTAP packets out of %d payloads\n", sent, len(packets))
	return nil
}
