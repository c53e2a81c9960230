package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/lestrrat-go/strftime"

	"gsm-decoder/internal/lookup"
)

// Mode is the command the configuration is validated for.
type Mode string

const (
	ModeDecode Mode = "decode"
	ModeListen Mode = "listen"
	ModeReplay Mode = "replay"
)

// Validate checks that the configuration is valid for mode.
func (c *Config) Validate(mode Mode) error {
	var errs []string

	// A capture is read by decode and replay
	if mode == ModeDecode || mode == ModeReplay {
		if c.Input.PcapFile == "" {
			errs = append(errs, "input.pcap_file must be specified")
		} else if _, err := os.Stat(c.Input.PcapFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("pcap file not found: %s", c.Input.PcapFile))
		}
	}

	if !validPort(c.Input.GSMTAPPort) {
		errs = append(errs, fmt.Sprintf("input.gsmtap_port must be between 1 and 65535, got %d", c.Input.GSMTAPPort))
	}

	if mode == ModeListen {
		if net.ParseIP(c.Listen.Address) == nil {
			errs = append(errs, fmt.Sprintf("listen.address must be a valid IP address, got %q", c.Listen.Address))
		}
		if !validPort(c.Listen.Port) {
			errs = append(errs, fmt.Sprintf("listen.port must be between 1 and 65535, got %d", c.Listen.Port))
		}
	}

	if mode == ModeReplay {
		if net.ParseIP(c.Replay.Address) == nil {
			errs = append(errs, fmt.Sprintf("replay.address must be a valid IP address, got %q", c.Replay.Address))
		}
		if !validPort(c.Replay.Port) {
			errs = append(errs, fmt.Sprintf("replay.port must be between 1 and 65535, got %d", c.Replay.Port))
		}
		if c.Replay.IntervalMs < 0 {
			errs = append(errs, "replay.interval_ms must be >= 0")
		}
	}

	if mode != ModeReplay {
		if c.Output.Dir == "" {
			errs = append(errs, "output.dir must be specified")
		}
		if c.Output.TmpExt == c.Output.TxtExt {
			errs = append(errs, fmt.Sprintf("output.tmp_ext and output.txt_ext must differ, both are %q", c.Output.TxtExt))
		}
		if _, err := strftime.New(c.Output.TimeFormat); c.Output.TimeFormat != "" && err != nil {
			errs = append(errs, fmt.Sprintf("invalid output.time_format %q: %v", c.Output.TimeFormat, err))
		}
		if c.Output.RotateSec < 0 {
			errs = append(errs, "output.rotate_sec must be >= 0")
		}
		if c.Speech.Enabled && c.Speech.Dir == "" {
			errs = append(errs, "speech.dir must be specified when speech is enabled")
		}
		if c.Flow.IdleTimeoutSec <= 0 {
			errs = append(errs, "flow.idle_timeout_sec must be > 0")
		}
	}

	// Dictionary formats must be known
	checkFormat := func(key, got string, allowed ...lookup.Format) {
		for _, f := range allowed {
			if lookup.Format(got) == f {
				return
			}
		}
		names := make([]string, len(allowed))
		for i, f := range allowed {
			names[i] = string(f)
		}
		errs = append(errs, fmt.Sprintf("%s must be one of %s, got %q", key, strings.Join(names, "/"), got))
	}
	checkFormat("lookup.mcc_format", c.Lookup.MCCFormat, lookup.FormatCode, lookup.FormatName)
	checkFormat("lookup.mnc_format", c.Lookup.MNCFormat, lookup.FormatOperator, lookup.FormatBrand)
	checkFormat("lookup.e164_format", c.Lookup.E164Format, lookup.FormatCode, lookup.FormatName)

	if c.Stats.ReportIntervalSec < 0 {
		errs = append(errs, "stats.report_interval_sec must be >= 0")
	}

	// Log level must be valid
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
