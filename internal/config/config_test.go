package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsm-decoder/internal/gsm"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4729, cfg.Input.GSMTAPPort)
	assert.True(t, cfg.Input.SCTP)
	assert.Equal(t, "/tmp/gsm_txt", cfg.Output.Dir)
	assert.Equal(t, "\t", cfg.Output.Separator)
	assert.Equal(t, "gsm", cfg.Output.Prefix)
	assert.Equal(t, "/tmp/gsm_txt/gsm_gsm_stats.txt", cfg.Stats.StatFile)
	assert.True(t, cfg.Speech.Split)
	assert.True(t, cfg.Decode.TMSIHex)
	assert.Equal(t, 300, cfg.Flow.IdleTimeoutSec)
	for _, kind := range gsm.Kinds() {
		assert.True(t, cfg.FileEnabled(kind), kind.String())
	}
	assert.Equal(t, "_gsm_imsi", cfg.FileSuffix(gsm.KindIdentity))
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gsm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  pcap_file: /data/abis_trace.pcap
output:
  files:
    packets: false
  suffix:
    sms: _texts
speech:
  split: false
lookup:
  mcc_format: name
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abis_trace", cfg.Output.Prefix)
	assert.False(t, cfg.FileEnabled(gsm.KindPacket))
	assert.True(t, cfg.FileEnabled(gsm.KindFlow))
	assert.Equal(t, "_texts", cfg.FileSuffix(gsm.KindSMS))
	assert.Equal(t, "_gsm_calls", cfg.FileSuffix(gsm.KindCalls))
	assert.False(t, cfg.Speech.Split)
	assert.Equal(t, "name", string(cfg.LookupOptions().MCCFormat))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_DecodeNeedsCapture(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate(ModeDecode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.pcap_file must be specified")

	assert.NoError(t, cfg.Validate(ModeListen))
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Replay.Address = "not-an-ip"
	cfg.Lookup.MNCFormat = "code"
	cfg.Logging.Level = "trace"

	err = cfg.Validate(ModeReplay)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration errors:")
	assert.Contains(t, msg, "replay.address must be a valid IP address")
	assert.Contains(t, msg, "lookup.mnc_format must be one of operator/brand")
	assert.Contains(t, msg, "logging.level")
}

func TestValidate_ListenPort(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Listen.Port = 70000

	err = cfg.Validate(ModeListen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen.port must be between 1 and 65535")
}
