package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/amr"
	"gsm-decoder/internal/config"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/lookup"
	"gsm-decoder/internal/pipeline"
	"gsm-decoder/internal/sidecar"
	"gsm-decoder/internal/stats"
)

// session holds what one decode run writes to.
type session struct {
	cfg       *config.Config
	statsOnly bool
	tables    *lookup.Tables
	collector *stats.Collector
	reporter  *stats.Reporter
	pipeline  *pipeline.Pipeline
}

func newSession(ctx context.Context, cfg *config.Config, statsOnly bool, gsmtapPort int) (*session, error) {
	tables, err := lookup.New(ctx, cfg.LookupOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup tables: %w", err)
	}

	metrics := stats.NewMetrics()
	if cfg.Stats.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.Stats.MetricsAddr)
	}
	collector := stats.NewCollector(metrics)
	reporter := stats.NewReporter(collector, stats.ReporterOptions{
		IntervalSec: cfg.Stats.ReportIntervalSec,
		StatFile:    cfg.Stats.StatFile,
		ExportFile:  cfg.Stats.ExportFile,
	})
	if cfg.Stats.Enabled && !statsOnly {
		reporter.StartPeriodicReport(ctx)
	}

	opts := pipeline.Options{
		Tables:      tables,
		Collector:   collector,
		Metrics:     metrics,
		IdleTimeout: cfg.IdleTimeout(),
		TMSIHex:     cfg.Decode.TMSIHex,
		GSMTAPPort:  uint16(gsmtapPort),
	}

	if !statsOnly {
		opts.Sidecars, err = sidecar.NewWriter(sidecarConfig(cfg))
		if err != nil {
			tables.Close()
			return nil, fmt.Errorf("failed to create text files: %w", err)
		}
		if cfg.Speech.Enabled {
			store, err := amr.NewStore(amr.StoreConfig{
				Dir:    cfg.Speech.Dir,
				TmpExt: cfg.Output.TmpExt,
				Ext:    cfg.Speech.Ext,
				Split:  cfg.Speech.Split,
			})
			if err != nil {
				opts.Sidecars.Close()
				tables.Close()
				return nil, err
			}
			opts.Speech = store
		}
	}

	log.WithField("run_id", reporter.RunID()).Info("Decoder ready")

	return &session{
		cfg:       cfg,
		statsOnly: statsOnly,
		tables:    tables,
		collector: collector,
		reporter:  reporter,
		pipeline:  pipeline.New(opts),
	}, nil
}

func sidecarConfig(cfg *config.Config) sidecar.Config {
	sc := sidecar.Config{
		Dir:        cfg.Output.Dir,
		Prefix:     cfg.Output.Prefix,
		Separator:  cfg.Output.Separator,
		TimeFormat: cfg.Output.TimeFormat,
		RotateSec:  cfg.Output.RotateSec,
		RmDir:      cfg.Output.RmDir,
		TxtExt:     cfg.Output.TxtExt,
		TmpExt:     cfg.Output.TmpExt,
		Enabled:    make(map[gsm.RecordKind]bool),
		Suffix:     make(map[gsm.RecordKind]string),
	}
	for _, kind := range gsm.Kinds() {
		sc.Enabled[kind] = cfg.FileEnabled(kind)
		sc.Suffix[kind] = cfg.FileSuffix(kind)
	}
	return sc
}

// finish ends every flow, then prints and stores the statistics.
func (s *session) finish() error {
	if err := s.pipeline.Close(); err != nil {
		return err
	}

	if s.statsOnly {
		fmt.Print(s.reporter.FormatReport())
		return nil
	}
	if !s.cfg.Stats.Enabled {
		return nil
	}

	s.reporter.PrintFinalReport()
	if err := s.reporter.WriteStatFile(); err != nil {
		log.WithError(err).Warn("Failed to write statistics file")
	}
	if err := s.reporter.ExportJSON(); err != nil {
		log.WithError(err).Warn("Failed to export statistics")
	}
	return nil
}

func (s *session) close() {
	if err := s.tables.Close(); err != nil {
		log.WithError(err).Debug("Failed to close lookup tables")
	}
}
