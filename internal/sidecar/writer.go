// Package sidecar writes decoder records into tab separated text files, one
// file per record kind. Files are written under a temporary extension and
// renamed once closed.
package sidecar

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/gsm"
)

const rotationPattern = "%Y%m%d_%H%M%S"

// Config selects the sidecar files and their format.
type Config struct {
	Dir        string
	Prefix     string
	Separator  string
	TimeFormat string
	// RotateSec reopens every file each RotateSec seconds of capture time.
	RotateSec int
	RmDir     bool
	TxtExt    string
	TmpExt    string
	Enabled   map[gsm.RecordKind]bool
	Suffix    map[gsm.RecordKind]string
}

// Writer is a gsm.RecordSink writing one file per enabled record kind.
type Writer struct {
	cfg      Config
	timeFmt  gsm.TimeFormatter
	rotation *strftime.Strftime

	files  map[gsm.RecordKind]*file
	period time.Time
	lines  uint64
	mu     sync.Mutex
}

type file struct {
	f      *os.File
	w      *bufio.Writer
	tmp    string
	final  string
	failed bool
}

// NewWriter prepares the output directory. Without rotation the files are
// created immediately; with rotation they are created by the first Advance.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Separator == "" {
		cfg.Separator = "\t"
	}
	tf, err := NewTimeFormatter(cfg.TimeFormat)
	if err != nil {
		return nil, err
	}
	rot, err := strftime.New(rotationPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rotation pattern: %w", err)
	}

	if cfg.RmDir {
		if err := os.RemoveAll(cfg.Dir); err != nil {
			return nil, fmt.Errorf("failed to empty output directory %s: %w", cfg.Dir, err)
		}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.Dir, err)
	}

	w := &Writer{
		cfg:      cfg,
		timeFmt:  tf,
		rotation: rot,
		files:    make(map[gsm.RecordKind]*file),
	}
	if cfg.RotateSec <= 0 {
		if err := w.open(""); err != nil {
			w.closeAll()
			return nil, err
		}
	}
	return w, nil
}

// NewTimeFormatter renders times with a strftime pattern followed by the
// microseconds. An empty pattern keeps seconds.microseconds.
func NewTimeFormatter(pattern string) (gsm.TimeFormatter, error) {
	if pattern == "" {
		return gsm.DefaultTime, nil
	}
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile time format %q: %w", pattern, err)
	}
	return func(t time.Time) string {
		t = t.UTC()
		return fmt.Sprintf("%s.%06d", p.FormatString(t), t.Nanosecond()/1000)
	}, nil
}

// Path returns the in-progress path of the file of kind for a rotation
// suffix.
func (w *Writer) Path(kind gsm.RecordKind, rotation string) string {
	name := w.cfg.Prefix + w.cfg.Suffix[kind]
	if rotation != "" {
		name += "_" + rotation
	}
	return filepath.Join(w.cfg.Dir, name+w.cfg.TmpExt)
}

func (w *Writer) open(rotation string) error {
	for _, kind := range gsm.Kinds() {
		if !w.cfg.Enabled[kind] {
			continue
		}
		tmp := w.Path(kind, rotation)
		fh, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("failed to create %s file %s: %w", kind, tmp, err)
		}
		f := &file{
			f:     fh,
			w:     bufio.NewWriter(fh),
			tmp:   tmp,
			final: strings.TrimSuffix(tmp, w.cfg.TmpExt) + w.cfg.TxtExt,
		}
		fmt.Fprintf(f.w, "%%%s\n", strings.Join(kind.Columns(), w.cfg.Separator))
		w.files[kind] = f
	}
	log.WithFields(log.Fields{"dir": w.cfg.Dir, "files": len(w.files), "rotation": rotation}).Debug("Opened sidecar files")
	return nil
}

// Advance moves the writer to capture time ts, rotating the files when ts
// enters a new period.
func (w *Writer) Advance(ts time.Time) error {
	if w.cfg.RotateSec <= 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	period := ts.Truncate(time.Duration(w.cfg.RotateSec) * time.Second)
	if !w.period.IsZero() && !period.After(w.period) {
		return nil
	}
	w.closeAll()
	w.period = period
	return w.open(w.rotation.FormatString(period.UTC()))
}

// Emit writes r to the file of its kind. Records of disabled kinds are
// dropped.
func (w *Writer) Emit(r gsm.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[r.Kind()]
	if !ok || f.failed {
		return
	}
	line := strings.Join(r.Columns(w.timeFmt), w.cfg.Separator)
	if _, err := f.w.WriteString(line + "\n"); err != nil {
		f.failed = true
		log.WithError(err).WithField("file", f.tmp).Warn("Failed to write sidecar record")
		return
	}
	w.lines++
}

// Lines returns the number of records written.
func (w *Writer) Lines() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Close flushes every file and gives it its final name.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeAll()
}

func (w *Writer) closeAll() error {
	var firstErr error
	for kind, f := range w.files {
		if err := f.close(); err != nil {
			log.WithError(err).WithField("file", f.tmp).Warn("Failed to close sidecar file")
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(w.files, kind)
	}
	return firstErr
}

func (f *file) close() error {
	if err := f.w.Flush(); err != nil {
		f.f.Close()
		return fmt.Errorf("failed to flush %s: %w", f.tmp, err)
	}
	if err := f.f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.tmp, err)
	}
	if f.tmp == f.final {
		return nil
	}
	if err := os.Rename(f.tmp, f.final); err != nil {
		return fmt.Errorf("failed to rename %s: %w", f.tmp, err)
	}
	return nil
}
