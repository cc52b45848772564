package modbus

import (
	"encoding/binary"
	"sync"
)

// CRC16Variant selects the final xor applied to the rtu checksum.
type CRC16Variant byte

// crc16 variant
const (
	// CRC16Even standard modbus crc, xor out 0x0000
	CRC16Even CRC16Variant = iota
	// CRC16Odd inverted crc used by some devices, xor out 0xFFFF
	CRC16Odd
)

// String implements fmt.Stringer.
func (v CRC16Variant) String() string {
	if v == CRC16Odd {
		return "odd"
	}
	return "even"
}

// Cyclical Redundancy Checking
type crc struct {
	once  sync.Once
	table []uint16
}

var crcTb crc

func crc16(bs []byte) uint16 {
	crcTb.once.Do(crcTb.initTable)

	val := uint16(0xFFFF)
	for _, v := range bs {
		val = (val >> 8) ^ crcTb.table[(val^uint16(v))&0x00FF]
	}
	return val
}

// initTable 初始化表
func (c *crc) initTable() {
	crcPoly16 := uint16(0xa001)
	c.table = make([]uint16, 256)

	for i := uint16(0); i < 256; i++ {
		crc := uint16(0)
		b := i

		for j := uint16(0); j < 8; j++ {
			if ((crc ^ b) & 0x0001) > 0 {
				crc = (crc >> 1) ^ crcPoly16
			} else {
				crc = crc >> 1
			}
			b = b >> 1
		}
		c.table[i] = crc
	}
}

// CRC16 returns the rtu checksum of data for the given variant.
func CRC16(data []byte, variant CRC16Variant) uint16 {
	if variant == CRC16Odd {
		return crc16(data) ^ 0xFFFF
	}
	return crc16(data)
}

// VerifyCRC16 reports whether the last two bytes of frame, little-endian,
// are the checksum of the bytes before them.
func VerifyCRC16(frame []byte, variant CRC16Variant) bool {
	if len(frame) < 3 {
		return false
	}
	n := len(frame) - 2
	return CRC16(frame[:n], variant) == binary.LittleEndian.Uint16(frame[n:])
}
