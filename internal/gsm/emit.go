package gsm

import "gsm-decoder/internal/codec"

// EmitIdentity writes an identity record for an IMSI, IMEI, IMEISV or TMSI.
// Other identity types are ignored.
func (m *Metadata) EmitIdentity(id codec.MobileIdentity) {
	if !id.Present() {
		return
	}
	r := &IdentityRecord{
		RecordHeader: m.Header(),
		RSLChannel:   m.RSL.Channel,
		Type:         id.Type,
		Value:        id.Value(m.TMSIHex()),
	}
	if dev, ok := m.Device(id.TAC()); ok {
		r.Manufacturer, r.Model, r.HasDevice = dev.Manufacturer, dev.Model, true
	}
	if mcc, mnc, ok := id.HomePLMN(); ok {
		r.IMSIMCC, r.IMSIMNC, r.HasIMSI = mcc, mnc, true
		r.IMSICountry = m.Country(mcc)
		r.IMSIOperator = m.Network(mcc, mnc)
	}
	m.fillLAI(r)
	m.Emit(r)
}

// EmitTMSI writes an identity record for a bare TMSI field.
func (m *Metadata) EmitTMSI(tmsi uint32) {
	m.EmitIdentity(codec.MobileIdentity{Type: codec.IdentityTMSI, TMSI: tmsi})
}

func (m *Metadata) fillLAI(r *IdentityRecord) {
	lai := m.DTAP.LAI
	if !lai.Valid {
		return
	}
	r.LAI = lai
	r.LAICountry = m.Country(lai.MCC)
	r.LAIOperator = m.Network(lai.MCC, lai.MNC)
}

// EmitARFCN writes an ARFCN record for a single-RF channel description.
// Hopping channels carry no ARFCN and are ignored. A Channel Description 3
// has no channel type of its own and reports the DTAP channel of the
// packet instead.
func (m *Metadata) EmitARFCN(cd codec.ChannelDescription) {
	if cd.Hopping {
		return
	}
	r := &ARFCNRecord{
		RecordHeader: m.Header(),
		RSLChannel:   m.RSL.Channel,
		DTAPTN:       cd.TN,
		DTAPChannel:  cd.Channel(),
		Carrier:      cd.Carrier,
	}
	if cd.Coding == 3 {
		r.DTAPTN, r.DTAPChannel = m.DTAP.Channel.TN, m.DTAP.ChannelString()
	}
	m.Emit(r)
}
