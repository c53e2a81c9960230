// Package pipeline drives packets through the flow table, the decoder and the
// sidecar writer, in packet order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/decoder"
	"gsm-decoder/internal/flow"
	"gsm-decoder/internal/gsm"
	"gsm-decoder/internal/lookup"
	"gsm-decoder/internal/sidecar"
	"gsm-decoder/internal/stats"
	"gsm-decoder/pkg/types"
)

// Options wires the collaborators of a pipeline. Sidecars and Speech may be
// nil, in which case no records or speech files are written.
type Options struct {
	Sidecars    *sidecar.Writer
	Speech      gsm.SpeechOpener
	Tables      *lookup.Tables
	Collector   *stats.Collector
	Metrics     *stats.Metrics
	IdleTimeout time.Duration
	TMSIHex     bool
	GSMTAPPort  uint16
}

// Pipeline decodes a stream of packets.
type Pipeline struct {
	ctx       *gsm.Context
	table     *flow.Table
	sidecars  *sidecar.Writer
	collector *stats.Collector
	packets   uint64
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	gctx := &gsm.Context{
		Tables:     opts.Tables,
		Speech:     opts.Speech,
		TMSIHex:    opts.TMSIHex,
		GSMTAPPort: opts.GSMTAPPort,
	}

	var sink gsm.RecordSink
	if opts.Sidecars != nil {
		sink = opts.Sidecars
		gctx.Sink = sink
	}

	cfg := flow.Config{IdleTimeout: opts.IdleTimeout}
	if opts.Metrics != nil {
		cfg.OnActive = opts.Metrics.SetActiveFlows
	}
	if opts.Collector != nil {
		col := opts.Collector
		cfg.OnEnd = func(*gsm.Flow) { col.FlowEnded() }
	}

	return &Pipeline{
		ctx:       gctx,
		table:     flow.NewTable(cfg, sink),
		sidecars:  opts.Sidecars,
		collector: opts.Collector,
	}
}

// Process decodes one packet.
func (p *Pipeline) Process(pkt *types.RawPacket) error {
	if p.sidecars != nil {
		if err := p.sidecars.Advance(pkt.Timestamp); err != nil {
			return fmt.Errorf("failed to rotate sidecar files: %w", err)
		}
	}
	f := p.table.Get(pkt.Key, pkt.Timestamp)

	// a nil *stats.Collector must not reach the decoder as a non-nil interface
	var col decoder.Collector
	if p.collector != nil {
		col = p.collector
	}
	decoder.Decode(p.ctx, col, f, pkt)
	p.packets++
	return nil
}

// Run processes packets from ch until it is closed or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, ch <-chan types.RawPacket) error {
	for {
		select {
		case <-ctx.Done():
			log.Info("Decoding cancelled")
			return ctx.Err()
		case pkt, ok := <-ch:
			if !ok {
				return nil
			}
			if err := p.Process(&pkt); err != nil {
				return err
			}
		}
	}
}

// Packets returns the number of packets processed.
func (p *Pipeline) Packets() uint64 {
	return p.packets
}

// ActiveFlows returns the number of live flows.
func (p *Pipeline) ActiveFlows() int {
	return p.table.Len()
}

// Close terminates every flow, ends the statistics period and closes the
// sidecar files.
func (p *Pipeline) Close() error {
	n := p.table.Flush()
	if p.collector != nil {
		p.collector.Finish()
	}
	log.WithFields(log.Fields{
		"packets": p.packets,
		"flows":   n,
	}).Debug("Pipeline closed")

	if p.sidecars == nil {
		return nil
	}
	if err := p.sidecars.Close(); err != nil {
		return fmt.Errorf("failed to close sidecar files: %w", err)
	}
	return nil
}
