package lookup

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/mcc.yaml
var mccYAML []byte

type mccEntry struct {
	MCC  string `yaml:"mcc"`
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type mncEntry struct {
	MCC      string `yaml:"mcc"`
	MNC      string `yaml:"mnc"`
	Operator string `yaml:"operator"`
	Brand    string `yaml:"brand"`
}

type mccFile struct {
	MCC []mccEntry `yaml:"mcc"`
	MNC []mncEntry `yaml:"mnc"`
}

// Operators resolves mobile country and network codes.
type Operators struct {
	countries map[string]string
	networks  map[string]string // keyed by mcc+mnc
}

// NewOperators loads the embedded MCC/MNC table. mccFormat selects
// FormatCode or FormatName for countries, mncFormat FormatOperator or
// FormatBrand for networks.
func NewOperators(mccFormat, mncFormat Format) (*Operators, error) {
	var f mccFile
	if err := yaml.Unmarshal(mccYAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mcc table: %w", err)
	}
	o := &Operators{
		countries: make(map[string]string, len(f.MCC)),
		networks:  make(map[string]string, len(f.MNC)),
	}
	for _, e := range f.MCC {
		v := e.Code
		if mccFormat == FormatName {
			v = e.Name
		}
		o.countries[e.MCC] = v
	}
	for _, e := range f.MNC {
		v := e.Operator
		if mncFormat == FormatBrand {
			v = e.Brand
		}
		o.networks[e.MCC+e.MNC] = v
	}
	return o, nil
}

// Country returns the country of an MCC, or "".
func (o *Operators) Country(mcc string) string {
	return o.countries[mcc]
}

// Network returns the operator (or brand) of an MCC/MNC pair, or "".
// Two-digit MNCs are also tried with a leading zero stripped or added.
func (o *Operators) Network(mcc, mnc string) string {
	if v, ok := o.networks[mcc+mnc]; ok {
		return v
	}
	switch len(mnc) {
	case 3:
		if mnc[0] == '0' {
			return o.networks[mcc+mnc[1:]]
		}
	case 1:
		return o.networks[mcc+"0"+mnc]
	}
	return ""
}
