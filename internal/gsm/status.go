// Package gsm holds the state shared by the GSM protocol decoders: status
// bits, per-flow state, per-packet metadata, sidecar records and the
// per-packet tally merged into the statistics.
package gsm

import (
	"fmt"
	"strings"
)

// Status is the protocol and error bitmask of a packet or a flow.
type Status uint32

const (
	StatLAPDRSL Status = 0x00000001 // LAPD SAPI 0 (RSL)
	StatLAPDOML Status = 0x00000002 // LAPD SAPI 62 (OML)
	StatLAPDL2M Status = 0x00000004 // LAPD SAPI 63 (L2M)

	StatRSLRLM Status = 0x00000008 // Radio Link Layer Management
	StatRSLDCM Status = 0x00000010 // Dedicated Channel Management
	StatRSLCCM Status = 0x00000020 // Common Channel Management
	StatRSLTRX Status = 0x00000040 // TRX Management
	StatRSLLS  Status = 0x00000080 // Location Services
	StatRSLIPA Status = 0x00000100 // ip.access vendor specific
	StatRSLHUA Status = 0x00000200 // Huawei paging extension

	StatDTAP    Status = 0x00000400
	StatDTAPCC  Status = 0x00000800
	StatDTAPMM  Status = 0x00001000
	StatDTAPRR  Status = 0x00002000
	StatDTAPSMS Status = 0x00004000

	StatRP     Status = 0x00008000
	StatSMS    Status = 0x00010000
	StatGSMMAP Status = 0x00020000
	StatAMR    Status = 0x00040000

	StatUplink   Status = 0x00100000
	StatDownlink Status = 0x00200000

	StatIOErr Status = 0x01000000 // speech file could not be written

	StatLAPDMalformed  Status = 0x04000000
	StatLAPDmMalformed Status = 0x08000000
	StatRSLMalformed   Status = 0x10000000
	StatDTAPMalformed  Status = 0x20000000
	StatSMSMalformed   Status = 0x40000000
	StatMalformed      Status = 0x80000000
)

// AnyMalformed groups every malformed bit.
const AnyMalformed = StatLAPDMalformed | StatLAPDmMalformed | StatRSLMalformed |
	StatDTAPMalformed | StatSMSMalformed | StatMalformed

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatLAPDRSL, "LAPD_RSL"},
	{StatLAPDOML, "LAPD_OML"},
	{StatLAPDL2M, "LAPD_L2M"},
	{StatRSLRLM, "RSL_RLM"},
	{StatRSLDCM, "RSL_DCM"},
	{StatRSLCCM, "RSL_CCM"},
	{StatRSLTRX, "RSL_TRX"},
	{StatRSLLS, "RSL_LS"},
	{StatRSLIPA, "RSL_IPA"},
	{StatRSLHUA, "RSL_HUA"},
	{StatDTAP, "DTAP"},
	{StatDTAPCC, "DTAP_CC"},
	{StatDTAPMM, "DTAP_MM"},
	{StatDTAPRR, "DTAP_RR"},
	{StatDTAPSMS, "DTAP_SMS"},
	{StatRP, "RP"},
	{StatSMS, "SMS"},
	{StatGSMMAP, "GSM_MAP"},
	{StatAMR, "AMR"},
	{StatUplink, "UPLINK"},
	{StatDownlink, "DOWNLINK"},
	{StatIOErr, "IO_ERR"},
	{StatLAPDMalformed, "LAPD_MALFORMED"},
	{StatLAPDmMalformed, "LAPDM_MALFORMED"},
	{StatRSLMalformed, "RSL_MALFORMED"},
	{StatDTAPMalformed, "DTAP_MALFORMED"},
	{StatSMSMalformed, "SMS_MALFORMED"},
	{StatMalformed, "MALFORMED"},
}

// Has reports whether every bit of b is set.
func (s Status) Has(b Status) bool { return s&b == b }

// Hex renders the status the way the record columns print it.
func (s Status) Hex() string { return fmt.Sprintf("0x%08X", uint32(s)) }

// Names lists the names of the bits set in s.
func (s Status) Names() []string {
	var names []string
	for _, n := range statusNames {
		if s&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

func (s Status) String() string {
	if s == 0 {
		return "0x00000000"
	}
	return s.Hex() + " (" + strings.Join(s.Names(), "|") + ")"
}

// StatusBits returns every named bit with its name, in bit order.
func StatusBits() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for _, n := range statusNames {
		m[n.name] = n.bit
	}
	return m
}
