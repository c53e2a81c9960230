package amr

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/gsm"
)

// StoreConfig selects where speech files go and how they are named.
type StoreConfig struct {
	Dir    string
	TmpExt string
	Ext    string
	// Split writes one file per direction. Otherwise both directions of a
	// link share one file.
	Split bool
}

// Store opens the speech files of flows.
type Store struct {
	cfg StoreConfig
}

// NewStore creates the speech directory and returns a store writing to it.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create speech directory %s: %w", cfg.Dir, err)
	}
	return &Store{cfg: cfg}, nil
}

// Name returns the in-progress path of the speech file of f.
func (s *Store) Name(f *gsm.Flow) string {
	marker := ""
	if !s.cfg.Split {
		marker = "_A"
		if f.Inverted {
			marker = "_B"
		}
	}
	k := f.Key
	base := fmt.Sprintf("%d%s_%d.%06d_vlan%d_%s_%d_%s_%d_%s%s",
		f.Index, marker,
		f.FirstSeen.Unix(), f.FirstSeen.Nanosecond()/1000,
		k.VLAN, k.SrcIP, k.SrcPort, k.DstIP, k.DstPort, k.Transport, s.cfg.TmpExt)
	return filepath.Join(s.cfg.Dir, base)
}

// Open implements gsm.SpeechOpener. When files are shared, the file of the
// opposite flow is reused if it is open.
func (s *Store) Open(f *gsm.Flow) (gsm.SpeechFile, bool, error) {
	if !s.cfg.Split && f.Opposite != nil {
		if sf, ok := f.Opposite.Speech.(*speechFile); ok {
			sf.refs++
			return sf, false, nil
		}
	}

	tmp := s.Name(f)
	fh, err := os.Create(tmp)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create speech file %s: %w", tmp, err)
	}
	sf := &speechFile{
		file:  fh,
		w:     bufio.NewWriter(fh),
		tmp:   tmp,
		final: strings.TrimSuffix(tmp, s.cfg.TmpExt) + s.cfg.Ext,
		refs:  1,
	}
	if _, err := sf.w.WriteString(Magic); err != nil {
		fh.Close()
		return nil, false, fmt.Errorf("failed to write speech file header: %w", err)
	}
	log.WithField("file", tmp).Debug("Opened speech file")
	return sf, true, nil
}

// speechFile is an open speech file, released once by every flow using it.
type speechFile struct {
	file  *os.File
	w     *bufio.Writer
	tmp   string
	final string
	refs  int
}

func (sf *speechFile) Write(p []byte) (int, error) {
	return sf.w.Write(p)
}

// Release closes the file and gives it its final name once the last flow
// using it let go.
func (sf *speechFile) Release() error {
	sf.refs--
	if sf.refs > 0 {
		return nil
	}
	if err := sf.w.Flush(); err != nil {
		sf.file.Close()
		return fmt.Errorf("failed to flush speech file %s: %w", sf.tmp, err)
	}
	if err := sf.file.Close(); err != nil {
		return fmt.Errorf("failed to close speech file %s: %w", sf.tmp, err)
	}
	if sf.tmp == sf.final {
		return nil
	}
	if err := os.Rename(sf.tmp, sf.final); err != nil {
		return fmt.Errorf("failed to rename speech file %s: %w", sf.tmp, err)
	}
	return nil
}
