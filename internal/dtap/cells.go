package dtap

// cellChannelLen is the value length of a Cell Channel Description.
const cellChannelLen = 16

// decodeCellChannels identifies the format of a Cell Channel Description
// and lists its ARFCNs for the bit map formats. The range formats are
// recognized but not expanded, so arfcns is nil for them. ok is false for
// an unknown format.
func decodeCellChannels(v []byte) (format string, arfcns []uint16, ok bool) {
	if len(v) < cellChannelLen {
		return "", nil, false
	}
	o := v[0]
	switch {
	case o&0xc0 == 0x00:
		return "bit map 0", bitMap0(v), true
	case o&0xc8 == 0x80:
		return "1024 range", nil, true
	case o&0xce == 0x88:
		return "512 range", nil, true
	case o&0xce == 0x8a:
		return "256 range", nil, true
	case o&0xce == 0x8c:
		return "128 range", nil, true
	case o&0xce == 0x8e:
		return "variable bit map", variableBitMap(v), true
	}
	return "", nil, false
}

// bitMap0 lists the ARFCNs of a bit map 0 description. Octet 1 holds
// ARFCNs 124 to 121 in its low nibble, octets 2 to 16 hold 120 down to 1.
func bitMap0(v []byte) []uint16 {
	arfcns := []uint16{}
	for i := 0; i < cellChannelLen; i++ {
		top := 7
		if i == 0 {
			top = 3
		}
		for b := top; b >= 0; b-- {
			if v[i]&(1<<uint(b)) != 0 {
				arfcns = append(arfcns, uint16((cellChannelLen-1-i)*8+b+1))
			}
		}
	}
	return arfcns
}

// variableBitMap lists the ARFCNs of a variable bit map description: an
// origin ARFCN spread over octets 1 to 3, followed by one bit per ARFCN
// above it, modulo 1024.
func variableBitMap(v []byte) []uint16 {
	orig := uint16(v[0]&0x01)<<9 | uint16(v[1])<<1 | uint16(v[2]>>7)
	arfcns := []uint16{orig}
	k := uint16(0)
	for i := 2; i < cellChannelLen; i++ {
		top := 7
		if i == 2 {
			top = 6
		}
		for b := top; b >= 0; b-- {
			k++
			if v[i]&(1<<uint(b)) != 0 {
				arfcns = append(arfcns, (orig+k)%1024)
			}
		}
	}
	return arfcns
}
