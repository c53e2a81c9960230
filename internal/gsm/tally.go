package gsm

// RSLCount is one RSL message seen in a packet.
type RSLCount struct {
	Disc  uint8
	Type  uint8
	Typed bool
}

// DTAPCount is one DTAP message seen in a packet.
type DTAPCount struct {
	PD    uint8
	Type  uint8
	Typed bool
}

// AMRCount is one AMR frame seen in a packet.
type AMRCount struct {
	Type uint8
	Good bool
}

// Tally collects what one packet contributed to the statistics. The decoder
// hands it to the statistics aggregate once the packet is done.
type Tally struct {
	GSMTAP      int
	RSL         []RSLCount
	DTAP        []DTAPCount
	SMSTPDUs    int
	SMSMessages int
	AMRFiles    int
	AMR         []AMRCount
	Status      Status
}

// AddRSL counts an RSL message with its discriminator.
func (t *Tally) AddRSL(disc uint8) {
	t.RSL = append(t.RSL, RSLCount{Disc: disc})
}

// SetRSLType attaches the message type to the last RSL message.
func (t *Tally) SetRSLType(typ uint8) {
	if n := len(t.RSL); n > 0 {
		t.RSL[n-1].Type = typ
		t.RSL[n-1].Typed = true
	}
}

// AddDTAP counts a DTAP message with its protocol discriminator.
func (t *Tally) AddDTAP(pd uint8) {
	t.DTAP = append(t.DTAP, DTAPCount{PD: pd})
}

// SetDTAPType attaches the message type to the last DTAP message.
func (t *Tally) SetDTAPType(typ uint8) {
	if n := len(t.DTAP); n > 0 {
		t.DTAP[n-1].Type = typ
		t.DTAP[n-1].Typed = true
	}
}

// AddAMR counts an AMR frame.
func (t *Tally) AddAMR(ft uint8, good bool) {
	t.AMR = append(t.AMR, AMRCount{Type: ft, Good: good})
}

// Reset empties the tally for reuse.
func (t *Tally) Reset() {
	t.GSMTAP = 0
	t.RSL = t.RSL[:0]
	t.DTAP = t.DTAP[:0]
	t.SMSTPDUs = 0
	t.SMSMessages = 0
	t.AMRFiles = 0
	t.AMR = t.AMR[:0]
	t.Status = 0
}
