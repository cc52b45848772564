package modbus

// getBits reads nBits (<= 8) starting at bit start, lsb first.
// start + nBits must not exceed len(buf)*8.
func getBits(buf []byte, start, nBits uint16) uint8 {
	byteOffset := start / 8
	preBits := start - byteOffset*8

	mask := (uint16(1) << nBits) - 1
	word := uint16(buf[byteOffset])
	if preBits+nBits > 8 {
		word |= uint16(buf[byteOffset+1]) << 8
	}
	return uint8((word >> preBits) & mask)
}

// setBits writes the low nBits (<= 8) of value starting at bit start, lsb first.
// start + nBits must not exceed len(buf)*8.
func setBits(buf []byte, start, nBits uint16, value byte) {
	byteOffset := start / 8
	preBits := start - byteOffset*8
	mask := uint16((1<<nBits)-1) << preBits

	word := uint16(buf[byteOffset])
	spans := preBits+nBits > 8
	if spans {
		word |= uint16(buf[byteOffset+1]) << 8
	}
	word = (word &^ mask) | ((uint16(value) << preBits) & mask)
	buf[byteOffset] = uint8(word)
	if spans {
		buf[byteOffset+1] = uint8(word >> 8)
	}
}

// packBits packs coil states eight per byte, first coil in the lsb of the first byte.
func packBits(values []bool) []byte {
	buf := make([]byte, (len(values)+7)/8)
	for i, on := range values {
		if on {
			setBits(buf, uint16(i), 1, 1)
		}
	}
	return buf
}

// unpackBits expands the first quantity bits of buf.
func unpackBits(buf []byte, quantity uint16) []bool {
	values := make([]bool, quantity)
	for i := uint16(0); i < quantity; i++ {
		values[i] = getBits(buf, i, 1) == 1
	}
	return values
}
