package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gsm-decoder/internal/config"
	"gsm-decoder/internal/pcap"
)

var (
	version   = "1.0.0"
	cfgFile   string
	statsOnly bool
)

// flagKeys maps command line flags to the configuration keys they override.
var flagKeys = []struct{ flag, key string }{
	{"pcap", "input.pcap_file"},
	{"gsmtap-port", "input.gsmtap_port"},
	{"sctp", "input.sctp"},
	{"output-dir", "output.dir"},
	{"prefix", "output.prefix"},
	{"time-format", "output.time_format"},
	{"rotate", "output.rotate_sec"},
	{"speech", "speech.enabled"},
	{"speech-dir", "speech.dir"},
	{"split-speech", "speech.split"},
	{"idle-timeout", "flow.idle_timeout_sec"},
	{"tac-file", "lookup.tac_file"},
	{"watch-tac", "lookup.watch"},
	{"mcc-format", "lookup.mcc_format"},
	{"mnc-format", "lookup.mnc_format"},
	{"e164-format", "lookup.e164_format"},
	{"stats-interval", "stats.report_interval_sec"},
	{"stats-export", "stats.export_file"},
	{"metrics-addr", "stats.metrics_addr"},
	{"log-level", "logging.level"},
	{"log-file", "logging.file"},
	{"address", "listen.address"},
	{"port", "listen.port"},
	{"target", "replay.address"},
	{"target-port", "replay.port"},
	{"interval", "replay.interval_ms"},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gsm-decoder",
		Short: "GSM Decoder - Decode GSM signalling and speech from captures",
		Long: `A Go-based tool that decodes GSM Abis and Um traffic (GSMTAP, LAPD, RSL,
DTAP, SMS and AMR speech) from a capture file or a live GSMTAP feed and
writes per-packet, per-flow and per-event text files.`,
		Version: version,
		RunE:    runDecode,
	}

	// Configuration file
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")

	// CLI overrides shared by every mode
	pf.String("pcap", "", "Input PCAP file path")
	pf.Int("gsmtap-port", 4729, "UDP port carrying GSMTAP")
	pf.Bool("sctp", true, "Decode SCTP DATA chunk payloads")
	pf.String("output-dir", "", "Directory of the text files")
	pf.String("prefix", "", "File name prefix (default: capture name)")
	pf.String("time-format", "", "strftime pattern of the time column")
	pf.Int("rotate", 0, "Rotate text files every N seconds of capture time")
	pf.Bool("speech", true, "Extract AMR speech files")
	pf.String("speech-dir", "", "Directory of the speech files")
	pf.Bool("split-speech", true, "Write one speech file per direction")
	pf.Int("idle-timeout", 0, "Flow idle timeout in seconds")
	pf.String("tac-file", "", "TAC database file")
	pf.Bool("watch-tac", false, "Reload the TAC database when it changes")
	pf.String("mcc-format", "", "MCC rendering (code|name)")
	pf.String("mnc-format", "", "MNC rendering (operator|brand)")
	pf.String("e164-format", "", "Country rendering of numbers (code|name)")
	pf.Int("stats-interval", 0, "Seconds between statistics summaries (0 disables)")
	pf.String("stats-export", "", "Export statistics as JSON to this file")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-file", "", "Write logs to this file")
	pf.BoolVar(&statsOnly, "stats-only", false, "Print statistics only, do not write text or speech files")

	rootCmd.AddCommand(newListenCmd(), newReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	banner(cfg)

	if err := cfg.Validate(config.ModeDecode); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(ctx, cfg, statsOnly, cfg.Input.GSMTAPPort)
	if err != nil {
		return err
	}
	defer s.close()

	parser := pcap.NewParser(cfg.Input.SCTP)
	sum, err := parser.ForEach(ctx, cfg.Input.PcapFile, s.pipeline.Process)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Decoding interrupted by shutdown")
		} else {
			return fmt.Errorf("failed to decode pcap: %w", err)
		}
	}
	if sum != nil {
		fmt.Printf("Decoded %d payloads from %d packets (%d skipped)\n\n", sum.Payloads, sum.Packets, sum.Skipped)
	}

	return s.finish()
}

// loadConfig merges defaults, the configuration file and the flags that
// were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	// Load config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK if using CLI flags
		log.Debug("No config file found, using defaults and CLI flags")
	}

	// Bind CLI flags (override config file values)
	for _, fk := range flagKeys {
		bindFlag(v, cmd, fk.flag, fk.key)
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)
	return cfg, nil
}

// bindFlag makes a flag override key, but only when it was set explicitly.
func bindFlag(v *viper.Viper, cmd *cobra.Command, flagName, configKey string) {
	f := cmd.Flags().Lookup(flagName)
	if f == nil || !f.Changed {
		return
	}
	v.Set(configKey, f.Value.String())
}

func banner(cfg *config.Config) {
	fmt.Printf("GSM Decoder v%s\n", version)
	fmt.Println("==============================")
	fmt.Print(cfg.Summary())
	fmt.Println()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, using console only")
		} else {
			log.SetOutput(f)
		}
	}
}
