package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
)

const reportPrefix = "gsm"

// ReporterOptions selects where reports go.
type ReporterOptions struct {
	IntervalSec int
	StatFile    string
	ExportFile  string
	// Reset makes periodic reports differential.
	Reset bool
}

// Reporter outputs statistics to the console and to files.
type Reporter struct {
	collector *Collector
	opts      ReporterOptions
	runID     string
}

// NewReporter creates a new statistics reporter.
func NewReporter(collector *Collector, opts ReporterOptions) *Reporter {
	return &Reporter{
		collector: collector,
		opts:      opts,
		runID:     uuid.New().String(),
	}
}

// RunID identifies the run in exported statistics.
func (r *Reporter) RunID() string { return r.runID }

// StartPeriodicReport begins periodic statistics reporting in a goroutine.
func (r *Reporter) StartPeriodicReport(ctx context.Context) {
	if r.opts.IntervalSec <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Duration(r.opts.IntervalSec) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(FormatSummary(r.collector.Snapshot()))
				if r.opts.Reset {
					r.collector.Reset()
				}
			}
		}
	}()
}

// PrintFinalReport prints the final statistics summary.
func (r *Reporter) PrintFinalReport() {
	r.collector.Finish()
	fmt.Print(FormatSummary(r.collector.Snapshot()))
}

// FormatReport renders the statistics file content: DTAP and RSL totals
// followed by per message type tables.
func (r *Reporter) FormatReport() string {
	return FormatReport(r.collector.Snapshot())
}

// WriteStatFile writes the statistics report to the configured file.
func (r *Reporter) WriteStatFile() error {
	if r.opts.StatFile == "" {
		return nil
	}
	if err := os.WriteFile(r.opts.StatFile, []byte(r.FormatReport()), 0644); err != nil {
		return fmt.Errorf("failed to write stat file %s: %w", r.opts.StatFile, err)
	}
	log.WithField("file", r.opts.StatFile).Info("Statistics written")
	return nil
}

// ExportJSON exports statistics to a JSON file.
func (r *Reporter) ExportJSON() error {
	if r.opts.ExportFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(r.export(r.collector.Snapshot()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats JSON: %w", err)
	}

	if err := os.WriteFile(r.opts.ExportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file %s: %w", r.opts.ExportFile, err)
	}

	log.WithField("file", r.opts.ExportFile).Info("Statistics exported to JSON")
	return nil
}

func (r *Reporter) export(snap *Snapshot) map[string]interface{} {
	rslClasses := map[string]uint64{}
	for i, n := range snap.RSLClasses {
		rslClasses[RSLClass(i).String()] = n
	}
	dtapFamilies := map[string]uint64{}
	for i, n := range snap.DTAPFamilies {
		dtapFamilies[DTAPFamily(i).String()] = n
	}
	amrTypes := map[string]interface{}{}
	for ft, fc := range snap.AMRByType {
		amrTypes[codec.AMRTypeName(ft)] = map[string]uint64{"good": fc.Good, "bad": fc.Bad}
	}

	export := map[string]interface{}{
		"run_id":       r.runID,
		"start_time":   snap.StartTime.Format(time.RFC3339),
		"duration_sec": snap.Elapsed.Seconds(),
		"status":       snap.Status.Hex(),
		"packets":      snap.Packets,
		"gsmtap":       snap.GSMTAP,
		"malformed":    snap.Malformed,
		"flows":        snap.FlowsEnded,
		"rsl": map[string]interface{}{
			"total":   snap.RSL,
			"classes": rslClasses,
			"types":   namedCounts(snap.RSLTypes, codec.RSLTypeName),
		},
		"dtap": map[string]interface{}{
			"total":    snap.DTAP,
			"families": dtapFamilies,
			"cc":       namedCounts(snap.CCTypes, codec.CCMsgName),
			"mm":       namedCounts(snap.MMTypes, codec.MMMsgName),
			"rr":       namedCounts(snap.RRTypes, codec.RRMsgName),
		},
		"sms": map[string]interface{}{
			"tpdus":    snap.SMSTPDUs,
			"messages": snap.SMSMessages,
		},
		"amr": map[string]interface{}{
			"files": snap.AMRFiles,
			"good":  snap.AMRFrames.Good,
			"bad":   snap.AMRFrames.Bad,
			"types": amrTypes,
		},
	}
	if !snap.EndTime.IsZero() {
		export["end_time"] = snap.EndTime.Format(time.RFC3339)
	}
	if snap.Elapsed.Seconds() > 0 {
		export["throughput_pkt_per_sec"] = float64(snap.Packets) / snap.Elapsed.Seconds()
	}
	return export
}

func namedCounts(m map[uint8]uint64, name func(uint8) string) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[name(k)] += v
	}
	return out
}

// FormatSummary renders the end of run summary. Zero counters are left out.
func FormatSummary(s *Snapshot) string {
	var sb strings.Builder
	if s.Status != 0 {
		line(&sb, "Aggregated gsmStat=%s", s.Status.Hex())
	}
	pct := func(prefix string, n, total uint64) {
		if n > 0 {
			line(&sb, "%s: %d%s [%.2f%%]", prefix, n, readable(n), percent(n, total))
		}
	}
	pct("Number of GSMTAP packets", s.GSMTAP, s.Packets)
	pct("Number of GSM RSL packets", s.RSL, s.Packets)
	for i, name := range []string{
		"RLM management", "DCM management", "CCM management", "TRX management",
		"Location Services", "ip.access Vendor Specific", "HUAWEI Paging Extension", "unknown",
	} {
		pct("Number of GSM RSL "+name+" packets", s.RSLClasses[i], s.RSL)
	}
	pct("Number of GSM DTAP packets", s.DTAP, s.Packets)
	for i, name := range []string{"CC", "MM", "RR", "SMS", "SS", "unknown"} {
		pct("Number of GSM DTAP "+name+" packets", s.DTAPFamilies[i], s.DTAP)
	}
	pct("Number of GSM SMS packets", s.SMSTPDUs, s.Packets)
	pct("Number of SMS messages", s.SMSMessages, s.Packets)
	if s.AMRFiles > 0 {
		line(&sb, "Number of one-way AMR conversations: %d%s", s.AMRFiles, readable(s.AMRFiles))
	}

	if total := s.AMRFrames.Total(); total > 0 {
		frames := func(name string, fc FrameCount) {
			line(&sb, "Number of %s good/bad frames: %d%s [%.2f%%] / %d%s [%.2f%%]", name,
				fc.Good, readable(fc.Good), percent(fc.Good, total),
				fc.Bad, readable(fc.Bad), percent(fc.Bad, total))
		}
		frames("AMR", s.AMRFrames)
		for _, ft := range sortedKeys(s.AMRByType) {
			if fc := s.AMRByType[ft]; fc.Total() > 0 {
				frames(codec.AMRTypeName(ft), fc)
			}
		}
	}
	return sb.String()
}

// FormatReport renders the statistics file of a snapshot.
func FormatReport(s *Snapshot) string {
	var sb strings.Builder
	pct := func(prefix string, n, total uint64, always bool) {
		if always || n > 0 {
			fmt.Fprintf(&sb, "%s: %d%s [%.2f%%]\n", prefix, n, readable(n), percent(n, total))
		}
	}

	if s.DTAP > 0 {
		pct("Number of GSM A-I/F DTAP packets", s.DTAP, s.Packets, true)
		sb.WriteByte('\n')
		for i, name := range []string{
			"Call Control (CC)", "Mobility Management (MM)", "Radio Resources Management (RR)",
			"SMS", "Non call related SS", "unknown",
		} {
			pct("Number of GSM A-I/F DTAP "+name+" packets", s.DTAPFamilies[i], s.DTAP, false)
		}
		sb.WriteByte('\n')

		if connect := s.CCTypes[codec.CCConnect]; connect != 0 {
			if ratio := float64(s.CCTypes[codec.CCSetup]) / float64(connect); ratio != 0 {
				fmt.Fprintf(&sb, "GSM A-I/F DTAP CC SETUP / CONNECT ratio: %5.3f\n\n", ratio)
			}
		}

		table(&sb, "GSM A-I/F DTAP CC message type", s.CCTypes, codec.CCMsgName, s.DTAP)
		sb.WriteByte('\n')
		table(&sb, "GSM A-I/F DTAP MM message type", s.MMTypes, codec.MMMsgName, s.DTAP)
		sb.WriteByte('\n')
		table(&sb, "GSM A-I/F DTAP RR message type", s.RRTypes, codec.RRMsgName, s.DTAP)
		if s.RSL > 0 {
			sb.WriteByte('\n')
		}
	}

	if s.RSL > 0 {
		pct("Number of GSM RSL packets", s.RSL, s.Packets, true)
		sb.WriteByte('\n')
		for i, name := range []string{
			"Radio Link Layer Management (RLM) management", "Dedicated Channel Management (DCM) management",
			"Common Channel Management (CCM) management", "TRX management", "Location Services",
			"ip.access Vendor Specific", "HUAWEI Paging Extension", "unknown",
		} {
			pct("Number of GSM RSL "+name+" packets", s.RSLClasses[i], s.RSL, false)
		}
		sb.WriteByte('\n')
		table(&sb, "GSM RSL message type", s.RSLTypes, codec.RSLTypeName, s.RSL)
	}
	return sb.String()
}

func table(sb *strings.Builder, title string, counts map[uint8]uint64, name func(uint8) string, total uint64) {
	fmt.Fprintf(sb, "# %s\tPackets\n", title)
	for _, k := range sortedKeys(counts) {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(sb, "%s\t%30d [%6.02f%%]\n", name(k), n, percent(n, total))
		}
	}
}

func line(sb *strings.Builder, format string, args ...interface{}) {
	fmt.Fprintf(sb, "%s: "+format+"\n", append([]interface{}{reportPrefix}, args...)...)
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// readable returns a " (1.50 K)" style suffix for counts of 1024 and more.
func readable(n uint64) string {
	if n < 1024 {
		return ""
	}
	i := (bits.Len64(n) - 1) / 10
	if i > 6 {
		i = 6
	}
	factors := [...]float64{1, 1e3, 1e6, 1e9, 1e12, 1e15, 1e18}
	return fmt.Sprintf(" (%.2f %c)", float64(n)/factors[i], ".KMGTPE"[i])
}

func sortedKeys[V any](m map[uint8]V) []uint8 {
	keys := make([]uint8, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
