package modbus

import (
	"fmt"
	"time"
)

// RTUFramer implements Framer for modbus RTU.
type RTUFramer struct {
	variant     CRC16Variant
	expectSlave byte
}

var _ Framer = (*RTUFramer)(nil)

// NewRTUFramer new rtu framer with the given crc variant.
func NewRTUFramer(variant CRC16Variant) *RTUFramer {
	return &RTUFramer{variant: variant}
}

// Encode slaveID & PDU to a RTU frame,return adu frame
//  Slave Address   : 1 byte
//  ---- data Unit ----
//  Function        : 1 byte
//  Data            : 0 up to 252 bytes
//  ---- checksum ----
//  CRC             : 2 byte, low byte first
func (sf *RTUFramer) Encode(slaveID byte, pdu ProtocolDataUnit) ([]byte, error) {
	if err := checkPduSize(pdu); err != nil {
		return nil, err
	}
	adu := make([]byte, 0, len(pdu.Data)+rtuAduMinSize)
	adu = append(adu, slaveID, pdu.FuncCode)
	adu = append(adu, pdu.Data...)
	checksum := CRC16(adu, sf.variant)

	sf.expectSlave = slaveID
	return append(adu, byte(checksum), byte(checksum>>8)), nil
}

// Scan resynchronizes one byte at a time: a wrong address, an impossible
// length or a crc failure drops the first byte of buf.
func (sf *RTUFramer) Scan(buf []byte) (FrameState, int, ProtocolDataUnit, error) {
	if len(buf) < rtuAduMinSize {
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}
	if buf[0] != sf.expectSlave {
		return FrameAddressMismatch, 1, ProtocolDataUnit{}, nil
	}
	length := rtuResponseLength(buf)
	if length > rtuAduMaxSize {
		return FrameNoise, 1, ProtocolDataUnit{}, nil
	}
	if len(buf) < length {
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}
	if !VerifyCRC16(buf[:length], sf.variant) {
		return FrameChecksumMismatch, 1, ProtocolDataUnit{}, nil
	}
	return FrameComplete, length, clonePdu(buf[1 : length-2]), nil
}

// rtuResponseLength infers the adu length of the response starting at adu,
// which holds at least rtuAduMinSize bytes.
func rtuResponseLength(adu []byte) int {
	funcCode := adu[1]
	if funcCode&funcCodeExceptionFlag != 0 {
		return rtuExceptionSize
	}
	switch funcCode {
	case FuncCodeReadCoils,
		FuncCodeReadDiscreteInputs,
		FuncCodeReadHoldingRegisters,
		FuncCodeReadInputRegisters:
		return 3 + int(adu[2]) + 2
	case FuncCodeWriteSingleCoil,
		FuncCodeWriteSingleRegister,
		FuncCodeWriteMultipleCoils,
		FuncCodeWriteMultipleRegisters:
		return rtuWriteRspSize
	default:
		return rtuAduMinSize
	}
}

// calculateDelay roughly calculates time needed for the next frame.
// See MODBUS over Serial Line - Specification and Implementation Guide (page 13).
func calculateDelay(baudRate, chars int) time.Duration {
	var characterDelay, frameDelay int // us

	if baudRate <= 0 || baudRate > 19200 {
		characterDelay = 750
		frameDelay = 1750
	} else {
		characterDelay = 15000000 / baudRate
		frameDelay = 35000000 / baudRate
	}
	return time.Duration(characterDelay*chars+frameDelay) * time.Microsecond
}

// DecodeRTUFrame extracts slaveID and PDU from a complete RTU frame and verify CRC.
func DecodeRTUFrame(adu []byte, variant CRC16Variant) (uint8, ProtocolDataUnit, error) {
	if len(adu) < rtuAduMinSize { // Minimum size (including address, funcCode and CRC)
		return 0, ProtocolDataUnit{}, fmt.Errorf("modbus: response length '%v' does not meet minimum '%v': %w",
			len(adu), rtuAduMinSize, ErrTruncated)
	}
	if !VerifyCRC16(adu, variant) {
		return 0, ProtocolDataUnit{}, fmt.Errorf("modbus: response crc '% x' does not match expected '%#04x': %w",
			adu[len(adu)-2:], CRC16(adu[:len(adu)-2], variant), ErrCRC)
	}
	return adu[0], clonePdu(adu[1 : len(adu)-2]), nil
}
