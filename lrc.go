package modbus

type lrc struct {
	sum uint8
}

func (sf *lrc) reset() *lrc {
	sf.sum = 0
	return sf
}

func (sf *lrc) push(data ...byte) *lrc {
	for _, b := range data {
		sf.sum += b
	}
	return sf
}

func (sf *lrc) value() byte {
	return uint8(-int8(sf.sum))
}

// LRC8 returns the longitudinal redundancy check of data, the two's
// complement of the byte sum.
func LRC8(data []byte) byte {
	var l lrc
	return l.push(data...).value()
}

// VerifyLRC8 reports whether the last byte of frame is the lrc of the bytes before it.
func VerifyLRC8(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 1
	return LRC8(frame[:n]) == frame[n]
}
