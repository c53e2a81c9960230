package lookup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Device is a TAC database record.
type Device struct {
	TAC          uint32
	Manufacturer string
	Model        string
}

// TACTable is an immutable, sorted set of devices.
type TACTable struct {
	devices []Device
}

// Len returns the number of records.
func (t *TACTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.devices)
}

// Lookup finds the device of a type allocation code.
func (t *TACTable) Lookup(tac uint32) (Device, bool) {
	if t == nil {
		return Device{}, false
	}
	i := sort.Search(len(t.devices), func(i int) bool { return t.devices[i].TAC >= tac })
	if i < len(t.devices) && t.devices[i].TAC == tac {
		return t.devices[i], true
	}
	return Device{}, false
}

func skipTACLine(line string) bool {
	return line == "" || line[0] == '#' || line[0] == ' ' || line[0] == '\t' || line[0] == '\r'
}

// ParseTAC reads a TAC database: comments and blank lines, a "% N" record
// count, then "tac<TAB>manufacturer<TAB>model" rows. Unparsable rows are
// skipped with a warning and a record count that does not match the rows
// found is reported but not fatal.
func ParseTAC(r io.Reader, name string) (*TACTable, error) {
	sc := bufio.NewScanner(r)
	expected := -1
	for sc.Scan() {
		line := sc.Text()
		if skipTACLine(line) {
			continue
		}
		if line[0] != '%' {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("failed to parse %s: expected leading '%%' followed by number of rows, found '%s'", name, line)
		}
		expected = n
		break
	}
	if expected < 0 {
		return nil, fmt.Errorf("failed to parse %s: missing '%%' record count", name)
	}

	t := &TACTable{devices: make([]Device, 0, expected)}
	count := 0
	for sc.Scan() {
		line := sc.Text()
		if skipTACLine(line) || line[0] == '%' {
			continue
		}
		count++
		if len(t.devices) >= expected {
			continue
		}
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		tac, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil || len(fields) < 3 {
			log.WithField("file", name).Warnf("Failed to parse line '%s'", line)
			count--
			continue
		}
		t.devices = append(t.devices, Device{TAC: uint32(tac), Manufacturer: fields[1], Model: fields[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	switch {
	case count < expected:
		log.WithField("file", name).Warnf("Read %d records, expected %d", count, expected)
	case count > expected:
		log.WithField("file", name).Warnf("Read %d records out of %d", expected, count)
	}

	sort.SliceStable(t.devices, func(i, j int) bool { return t.devices[i].TAC < t.devices[j].TAC })
	return t, nil
}

// LoadTAC reads a TAC database file.
func LoadTAC(path string) (*TACTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TAC database: %w", err)
	}
	defer f.Close()
	return ParseTAC(f, path)
}

// TACStore holds the current TAC table and swaps it when the file changes.
type TACStore struct {
	path    string
	table   atomic.Pointer[TACTable]
	reloads atomic.Uint64

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewTACStore loads path into a new store.
func NewTACStore(path string) (*TACStore, error) {
	t, err := LoadTAC(path)
	if err != nil {
		return nil, err
	}
	s := &TACStore{path: path}
	s.table.Store(t)
	log.WithFields(log.Fields{
		"file":    path,
		"records": t.Len(),
	}).Debug("Loaded TAC database")
	return s, nil
}

// Lookup finds a device in the current table.
func (s *TACStore) Lookup(tac uint32) (Device, bool) {
	if s == nil {
		return Device{}, false
	}
	return s.table.Load().Lookup(tac)
}

// Len returns the size of the current table.
func (s *TACStore) Len() int {
	if s == nil {
		return 0
	}
	return s.table.Load().Len()
}

// Reloads returns how many times the table was replaced.
func (s *TACStore) Reloads() uint64 {
	return s.reloads.Load()
}

// Reload re-reads the file and swaps the table. On error the current table
// stays in place.
func (s *TACStore) Reload() error {
	t, err := LoadTAC(s.path)
	if err != nil {
		return err
	}
	s.table.Store(t)
	s.reloads.Add(1)
	log.WithFields(log.Fields{
		"file":    s.path,
		"records": t.Len(),
	}).Info("Reloaded TAC database")
	return nil
}

// Watch reloads the table whenever the file is written or recreated, until
// ctx is done or Close is called.
func (s *TACStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// editors replace files, so watch the directory
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	s.watcher = w

	s.wg.Add(1)
	go s.watchLoop(ctx)
	return nil
}

func (s *TACStore) watchLoop(ctx context.Context) {
	defer s.wg.Done()

	target, _ := filepath.Abs(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				log.WithError(err).Warn("TAC database reload failed")
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("TAC watcher error")
		}
	}
}

// Close stops the watcher, if any.
func (s *TACStore) Close() error {
	if s == nil || s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
	return err
}
