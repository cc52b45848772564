package modbus

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ByteOrder how multi byte values are laid out across register bytes.
type ByteOrder byte

// byte order
const (
	// BigEndian ABCD, the modbus default
	BigEndian ByteOrder = iota
	// LittleEndian DCBA
	LittleEndian
	// BigEndianSwap CDAB, big-endian words in reverse word order
	BigEndianSwap
	// LittleEndianSwap BADC, little-endian words in reverse word order
	LittleEndianSwap
)

var byteOrderName = [...]string{"BigEndian", "LittleEndian", "BigEndianSwap", "LittleEndianSwap"}

// String implements fmt.Stringer.
func (o ByteOrder) String() string {
	if o.valid() {
		return byteOrderName[o]
	}
	return fmt.Sprintf("ByteOrder(%d)", byte(o))
}

// ParseByteOrder parse a byte order by name, case insensitive.
func ParseByteOrder(s string) (ByteOrder, error) {
	for i, name := range byteOrderName {
		if strings.EqualFold(s, name) {
			return ByteOrder(i), nil
		}
	}
	return BigEndian, fmt.Errorf("modbus: unknown byte order '%v': %w", s, ErrOutOfRange)
}

func (o ByteOrder) valid() bool { return o <= LittleEndianSwap }

func (o ByteOrder) swapped() bool { return o == BigEndianSwap || o == LittleEndianSwap }

// uint16 reads one register group. a single word has no word order, so the
// swap variants fall back to the opposite endianness.
func (o ByteOrder) uint16(b []byte) uint16 {
	if o == BigEndian || o == LittleEndianSwap {
		return binary.BigEndian.Uint16(b)
	}
	return binary.LittleEndian.Uint16(b)
}

func (o ByteOrder) putUint16(b []byte, v uint16) {
	if o == BigEndian || o == LittleEndianSwap {
		binary.BigEndian.PutUint16(b, v)
		return
	}
	binary.LittleEndian.PutUint16(b, v)
}

func (o ByteOrder) uint32(b []byte) uint32 {
	var v uint32
	if o == BigEndian || o == BigEndianSwap {
		v = binary.BigEndian.Uint32(b)
	} else {
		v = binary.LittleEndian.Uint32(b)
	}
	if o.swapped() {
		v = swapWords32(v)
	}
	return v
}

func (o ByteOrder) putUint32(b []byte, v uint32) {
	if o.swapped() {
		v = swapWords32(v)
	}
	if o == BigEndian || o == BigEndianSwap {
		binary.BigEndian.PutUint32(b, v)
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

func (o ByteOrder) uint64(b []byte) uint64 {
	var v uint64
	if o == BigEndian || o == BigEndianSwap {
		v = binary.BigEndian.Uint64(b)
	} else {
		v = binary.LittleEndian.Uint64(b)
	}
	if o.swapped() {
		v = swapWords64(v)
	}
	return v
}

func (o ByteOrder) putUint64(b []byte, v uint64) {
	if o.swapped() {
		v = swapWords64(v)
	}
	if o == BigEndian || o == BigEndianSwap {
		binary.BigEndian.PutUint64(b, v)
		return
	}
	binary.LittleEndian.PutUint64(b, v)
}

// swapWords32 exchanges the two 16-bit words.
func swapWords32(v uint32) uint32 {
	return v>>16 | v<<16
}

// swapWords64 reverses the order of the four 16-bit words.
func swapWords64(v uint64) uint64 {
	return (v&0xFFFF000000000000)>>48 |
		(v&0x0000FFFF00000000)>>16 |
		(v&0x00000000FFFF0000)<<16 |
		(v&0x000000000000FFFF)<<48
}

// Numeric the value types a register block can be reinterpreted as.
type Numeric interface {
	uint16 | int16 | uint32 | int32 | float32 | float64
}

// widthOf returns the size in bytes of T.
func widthOf[T Numeric]() int {
	var zero T
	switch any(zero).(type) {
	case uint16, int16:
		return 2
	case uint32, int32, float32:
		return 4
	default:
		return 8
	}
}

// fromBits reinterprets the low widthOf[T]() bytes of bits as T.
func fromBits[T Numeric](bits uint64) T {
	var v any
	var zero T
	switch any(zero).(type) {
	case uint16:
		v = uint16(bits)
	case int16:
		v = int16(uint16(bits))
	case uint32:
		v = uint32(bits)
	case int32:
		v = int32(uint32(bits))
	case float32:
		v = math.Float32frombits(uint32(bits))
	case float64:
		v = math.Float64frombits(bits)
	}
	return v.(T)
}

// toBits returns the bit pattern of v, zero extended.
func toBits[T Numeric](v T) uint64 {
	switch x := any(v).(type) {
	case uint16:
		return uint64(x)
	case int16:
		return uint64(uint16(x))
	case uint32:
		return uint64(x)
	case int32:
		return uint64(uint32(x))
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	}
	return 0
}

// ToValues reinterprets register bytes, as they appear on the wire, as a
// sequence of T using order. len(src) must be a multiple of the size of T.
func ToValues[T Numeric](src []byte, order ByteOrder) ([]T, error) {
	if !order.valid() {
		return nil, fmt.Errorf("modbus: unknown byte order '%v': %w", byte(order), ErrOutOfRange)
	}
	width := widthOf[T]()
	if len(src)%width != 0 {
		return nil, fmt.Errorf("modbus: source length '%v' is not a multiple of '%v': %w",
			len(src), width, ErrLengthMismatch)
	}
	values := make([]T, len(src)/width)
	for i := range values {
		b := src[i*width : (i+1)*width]
		switch width {
		case 2:
			values[i] = fromBits[T](uint64(order.uint16(b)))
		case 4:
			values[i] = fromBits[T](uint64(order.uint32(b)))
		default:
			values[i] = fromBits[T](order.uint64(b))
		}
	}
	return values, nil
}

// FromValues is the inverse of ToValues, it returns the registers to put on the wire.
func FromValues[T Numeric](values []T, order ByteOrder) ([]uint16, error) {
	b, err := FromValuesBytes(values, order)
	if err != nil {
		return nil, err
	}
	return BytesToRegisters(b)
}

// FromValuesBytes is FromValues returning the register bytes.
func FromValuesBytes[T Numeric](values []T, order ByteOrder) ([]byte, error) {
	if !order.valid() {
		return nil, fmt.Errorf("modbus: unknown byte order '%v': %w", byte(order), ErrOutOfRange)
	}
	width := widthOf[T]()
	b := make([]byte, len(values)*width)
	for i, v := range values {
		dst := b[i*width : (i+1)*width]
		switch width {
		case 2:
			order.putUint16(dst, uint16(toBits(v)))
		case 4:
			order.putUint32(dst, uint32(toBits(v)))
		default:
			order.putUint64(dst, toBits(v))
		}
	}
	return b, nil
}

// RegistersToBytes lays registers out big-endian as on the wire.
func RegistersToBytes(registers []uint16) []byte {
	return uint162Bytes(registers...)
}

// BytesToRegisters reads big-endian register bytes, len(b) must be even.
func BytesToRegisters(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("modbus: register bytes length '%v' must be even: %w", len(b), ErrLengthMismatch)
	}
	registers := make([]uint16, len(b)/2)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return registers, nil
}
