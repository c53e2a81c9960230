// Package lookup provides the read-only dictionaries used to annotate
// decoded identities: E.164 calling codes, MCC/MNC operators and the IMEI
// type allocation code database.
package lookup

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed data/e164.yaml
var e164YAML []byte

// Format selects which column of a dictionary is returned.
type Format string

const (
	FormatCode     Format = "code"
	FormatName     Format = "name"
	FormatOperator Format = "operator"
	FormatBrand    Format = "brand"
)

// spare is the code of unassigned and reserved calling codes.
const spare = "??"

type e164Entry struct {
	Num  int    `yaml:"num"`
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type e164File struct {
	Tier1 []e164Entry `yaml:"tier1"`
	Tier2 []e164Entry `yaml:"tier2"`
	Tier3 []e164Entry `yaml:"tier3"`
}

// E164 maps the leading digits of an international number to a country.
// It implements codec.CountryResolver.
type E164 struct {
	tiers  [3]map[int]e164Entry // by number of digits - 1
	format Format
}

// NewE164 loads the embedded calling code tables. format is FormatCode or
// FormatName.
func NewE164(format Format) (*E164, error) {
	var f e164File
	if err := yaml.Unmarshal(e164YAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse e164 table: %w", err)
	}
	if format != FormatName {
		format = FormatCode
	}
	e := &E164{format: format}
	for i, tier := range [][]e164Entry{f.Tier1, f.Tier2, f.Tier3} {
		e.tiers[i] = make(map[int]e164Entry, len(tier))
		for _, entry := range tier {
			if entry.Code == spare {
				continue
			}
			e.tiers[i][entry.Num] = entry
		}
	}
	return e, nil
}

func (e *E164) field(entry e164Entry) string {
	if e.format == FormatName {
		return entry.Name
	}
	return entry.Code
}

// Country returns the country of the first n digits. When n is 0 the
// longest match of 3, 2 or 1 digits wins. Unknown prefixes yield "".
func (e *E164) Country(digits string, n int) string {
	for l := 3; l >= 1; l-- {
		if (n != 0 && n != l) || len(digits) < l {
			continue
		}
		num, err := strconv.Atoi(digits[:l])
		if err != nil {
			continue
		}
		if entry, ok := e.tiers[l-1][num]; ok {
			return e.field(entry)
		}
	}
	return ""
}

// CountryCode returns the calling code of a country, searching the 3-digit
// codes first. It returns 0 when the country is unknown.
func (e *E164) CountryCode(country string) int {
	if country == "" {
		return 0
	}
	for l := 3; l >= 1; l-- {
		best := 0
		for num, entry := range e.tiers[l-1] {
			if e.field(entry) == country && (best == 0 || num < best) {
				best = num
			}
		}
		if best != 0 {
			return best
		}
	}
	return 0
}
