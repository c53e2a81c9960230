package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/lookup"
)

// Config holds all configuration for the GSM decoder.
type Config struct {
	Input   InputConfig   `yaml:"input"   mapstructure:"input"`
	Output  OutputConfig  `yaml:"output"  mapstructure:"output"`
	Speech  SpeechConfig  `yaml:"speech"  mapstructure:"speech"`
	Decode  DecodeConfig  `yaml:"decode"  mapstructure:"decode"`
	Flow    FlowConfig    `yaml:"flow"    mapstructure:"flow"`
	Lookup  LookupConfig  `yaml:"lookup"  mapstructure:"lookup"`
	Listen  ListenConfig  `yaml:"listen"  mapstructure:"listen"`
	Replay  ReplayConfig  `yaml:"replay"  mapstructure:"replay"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Stats   StatsConfig   `yaml:"stats"   mapstructure:"stats"`
}

type InputConfig struct {
	PcapFile   string `yaml:"pcap_file"   mapstructure:"pcap_file"`
	GSMTAPPort int    `yaml:"gsmtap_port" mapstructure:"gsmtap_port"`
	SCTP       bool   `yaml:"sctp"        mapstructure:"sctp"`
}

type OutputConfig struct {
	Dir        string            `yaml:"dir"         mapstructure:"dir"`
	Prefix     string            `yaml:"prefix"      mapstructure:"prefix"`
	Separator  string            `yaml:"separator"   mapstructure:"separator"`
	TimeFormat string            `yaml:"time_format" mapstructure:"time_format"`
	RotateSec  int               `yaml:"rotate_sec"  mapstructure:"rotate_sec"`
	RmDir      bool              `yaml:"rmdir"       mapstructure:"rmdir"`
	TxtExt     string            `yaml:"txt_ext"     mapstructure:"txt_ext"`
	TmpExt     string            `yaml:"tmp_ext"     mapstructure:"tmp_ext"`
	Files      map[string]bool   `yaml:"files"       mapstructure:"files"`
	Suffix     map[string]string `yaml:"suffix"      mapstructure:"suffix"`
}

type SpeechConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir"     mapstructure:"dir"`
	Split   bool   `yaml:"split"   mapstructure:"split"`
	Ext     string `yaml:"ext"     mapstructure:"ext"`
}

type DecodeConfig struct {
	TMSIHex bool `yaml:"tmsi_hex" mapstructure:"tmsi_hex"`
}

type FlowConfig struct {
	IdleTimeoutSec int `yaml:"idle_timeout_sec" mapstructure:"idle_timeout_sec"`
}

type LookupConfig struct {
	TACFile    string `yaml:"tac_file"    mapstructure:"tac_file"`
	Watch      bool   `yaml:"watch"       mapstructure:"watch"`
	MCCFormat  string `yaml:"mcc_format"  mapstructure:"mcc_format"`
	MNCFormat  string `yaml:"mnc_format"  mapstructure:"mnc_format"`
	E164Format string `yaml:"e164_format" mapstructure:"e164_format"`
}

type ListenConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
	Port    int    `yaml:"port"    mapstructure:"port"`
}

type ReplayConfig struct {
	Address    string `yaml:"address"     mapstructure:"address"`
	Port       int    `yaml:"port"        mapstructure:"port"`
	IntervalMs int    `yaml:"interval_ms" mapstructure:"interval_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file"  mapstructure:"file"`
}

type StatsConfig struct {
	Enabled           bool   `yaml:"enabled"             mapstructure:"enabled"`
	ReportIntervalSec int    `yaml:"report_interval_sec" mapstructure:"report_interval_sec"`
	ExportFile        string `yaml:"export_file"         mapstructure:"export_file"`
	StatFile          string `yaml:"stat_file"           mapstructure:"stat_file"`
	MetricsAddr       string `yaml:"metrics_addr"        mapstructure:"metrics_addr"`
}

// defaultSuffix is the file name suffix of every sidecar kind.
var defaultSuffix = map[gsm.RecordKind]string{
	gsm.KindARFCN:    "_gsm_arfcn",
	gsm.KindCalls:    "_gsm_calls",
	gsm.KindChannels: "_gsm_channels",
	gsm.KindImmAss:   "_gsm_imm_ass",
	gsm.KindIdentity: "_gsm_imsi",
	gsm.KindOperator: "_gsm_operators",
	gsm.KindSMS:      "_gsm_sms",
	gsm.KindPacket:   "_gsm_packets",
	gsm.KindFlow:     "_gsm_flows",
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.gsmtap_port", 4729)
	v.SetDefault("input.sctp", true)
	v.SetDefault("output.dir", "/tmp/gsm_txt")
	v.SetDefault("output.separator", "\t")
	v.SetDefault("output.time_format", "%Y-%m-%d %H:%M:%S")
	v.SetDefault("output.rotate_sec", 0)
	v.SetDefault("output.rmdir", true)
	v.SetDefault("output.txt_ext", ".txt")
	v.SetDefault("output.tmp_ext", ".tmp")
	for kind, suffix := range defaultSuffix {
		v.SetDefault("output.files."+kind.String(), true)
		v.SetDefault("output.suffix."+kind.String(), suffix)
	}
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.dir", "/tmp/gsm_speech")
	v.SetDefault("speech.split", true)
	v.SetDefault("speech.ext", ".amr")
	v.SetDefault("decode.tmsi_hex", true)
	v.SetDefault("flow.idle_timeout_sec", 300)
	v.SetDefault("lookup.tac_file", "tacdb.csv")
	v.SetDefault("lookup.watch", false)
	v.SetDefault("lookup.mcc_format", string(lookup.FormatCode))
	v.SetDefault("lookup.mnc_format", string(lookup.FormatOperator))
	v.SetDefault("lookup.e164_format", string(lookup.FormatCode))
	v.SetDefault("listen.address", "0.0.0.0")
	v.SetDefault("listen.port", 4729)
	v.SetDefault("replay.port", 4729)
	v.SetDefault("replay.interval_ms", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("stats.enabled", true)
	v.SetDefault("stats.report_interval_sec", 10)
}

// Load reads configuration from a YAML file and returns a Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper reads configuration using an existing viper instance (for CLI flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.fillDerived()
	return &cfg, nil
}

// fillDerived sets the values whose default depends on other keys.
func (c *Config) fillDerived() {
	if c.Output.Prefix == "" {
		c.Output.Prefix = "gsm"
		if c.Input.PcapFile != "" {
			base := filepath.Base(c.Input.PcapFile)
			c.Output.Prefix = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	if c.Stats.StatFile == "" {
		c.Stats.StatFile = filepath.Join(c.Output.Dir, c.Output.Prefix+"_gsm_stats.txt")
	}
}

// FileEnabled reports whether the sidecar of kind is written.
func (c *Config) FileEnabled(kind gsm.RecordKind) bool {
	on, ok := c.Output.Files[kind.String()]
	return !ok || on
}

// FileSuffix returns the file name suffix of the sidecar of kind.
func (c *Config) FileSuffix(kind gsm.RecordKind) string {
	if s, ok := c.Output.Suffix[kind.String()]; ok && s != "" {
		return s
	}
	return defaultSuffix[kind]
}

// IdleTimeout returns the flow idle timeout.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Flow.IdleTimeoutSec) * time.Second
}

// LookupOptions converts the lookup section.
func (c *Config) LookupOptions() lookup.Options {
	return lookup.Options{
		MCCFormat:  lookup.Format(c.Lookup.MCCFormat),
		MNCFormat:  lookup.Format(c.Lookup.MNCFormat),
		E164Format: lookup.Format(c.Lookup.E164Format),
		TACFile:    c.Lookup.TACFile,
		Watch:      c.Lookup.Watch,
	}
}

// Summary returns a human-readable summary of the configuration.
func (c *Config) Summary() string {
	var files []string
	for _, kind := range gsm.Kinds() {
		if c.FileEnabled(kind) {
			files = append(files, kind.String())
		}
	}

	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  PCAP:          %s\n", c.Input.PcapFile))
	sb.WriteString(fmt.Sprintf("  GSMTAP port:   %d (sctp=%v)\n", c.Input.GSMTAPPort, c.Input.SCTP))
	sb.WriteString(fmt.Sprintf("  Output:        %s/%s* [%s]\n", c.Output.Dir, c.Output.Prefix, strings.Join(files, ",")))
	sb.WriteString(fmt.Sprintf("  Rotation:      %ds\n", c.Output.RotateSec))
	sb.WriteString(fmt.Sprintf("  Speech:        enabled=%v dir=%s split=%v\n", c.Speech.Enabled, c.Speech.Dir, c.Speech.Split))
	sb.WriteString(fmt.Sprintf("  Flow idle:     %ds\n", c.Flow.IdleTimeoutSec))
	sb.WriteString(fmt.Sprintf("  TAC database:  %s (watch=%v)\n", c.Lookup.TACFile, c.Lookup.Watch))
	sb.WriteString(fmt.Sprintf("  Formats:       mcc=%s mnc=%s e164=%s\n", c.Lookup.MCCFormat, c.Lookup.MNCFormat, c.Lookup.E164Format))
	sb.WriteString(fmt.Sprintf("  Stats file:    %s\n", c.Stats.StatFile))
	return sb.String()
}
