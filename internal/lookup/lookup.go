package lookup

import (
	"context"
	"errors"
	"io/fs"

	log "github.com/sirupsen/logrus"
)

// Options selects the dictionary formats and the TAC database.
type Options struct {
	MCCFormat  Format
	MNCFormat  Format
	E164Format Format
	TACFile    string
	Watch      bool
}

// Tables bundles every dictionary used by the decoders.
type Tables struct {
	E164      *E164
	Operators *Operators
	TAC       *TACStore
}

// New loads the embedded tables and the TAC database. A missing TAC file is
// not an error: IMEI lookups then return nothing.
func New(ctx context.Context, opts Options) (*Tables, error) {
	e164, err := NewE164(opts.E164Format)
	if err != nil {
		return nil, err
	}
	ops, err := NewOperators(opts.MCCFormat, opts.MNCFormat)
	if err != nil {
		return nil, err
	}
	t := &Tables{E164: e164, Operators: ops}

	if opts.TACFile == "" {
		return t, nil
	}
	t.TAC, err = NewTACStore(opts.TACFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("file", opts.TACFile).Warn("TAC database not found, IMEI manufacturers will not be resolved")
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if opts.Watch {
		if err := t.TAC.Watch(ctx); err != nil {
			log.WithError(err).Warn("TAC database will not be reloaded")
		}
	}
	return t, nil
}

// Device resolves a TAC. It is safe on Tables without a TAC database.
func (t *Tables) Device(tac uint32) (Device, bool) {
	if t == nil || t.TAC == nil || tac == 0 {
		return Device{}, false
	}
	return t.TAC.Lookup(tac)
}

// Country returns the country of an MCC.
func (t *Tables) Country(mcc string) string {
	if t == nil || t.Operators == nil {
		return ""
	}
	return t.Operators.Country(mcc)
}

// Network returns the operator of an MCC/MNC pair.
func (t *Tables) Network(mcc, mnc string) string {
	if t == nil || t.Operators == nil {
		return ""
	}
	return t.Operators.Network(mcc, mnc)
}

// Close releases the TAC watcher.
func (t *Tables) Close() error {
	if t == nil {
		return nil
	}
	return t.TAC.Close()
}
