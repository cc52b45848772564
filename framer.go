package modbus

import (
	"fmt"
)

// FrameState result of scanning the receive window for the outstanding response.
type FrameState int

// frame state
const (
	// FrameIncomplete more bytes are needed before a decision can be made
	FrameIncomplete FrameState = iota
	// FrameNoise bytes that can not start the expected frame
	FrameNoise
	// FrameChecksumMismatch crc or lrc failed
	FrameChecksumMismatch
	// FrameAddressMismatch a frame for another slave or another transaction
	FrameAddressMismatch
	// FrameMalformed ascii frame with bad hex or a length below the minimum
	FrameMalformed
	// FrameComplete a validated frame for the outstanding request
	FrameComplete
)

var frameStateName = [...]string{
	"incomplete", "noise", "checksum mismatch", "address mismatch", "malformed", "complete",
}

// String implements fmt.Stringer.
func (s FrameState) String() string {
	if s >= 0 && int(s) < len(frameStateName) {
		return frameStateName[s]
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// Framer wraps a pdu into the transport specific adu and recognizes the
// response adu in a raw byte stream.
// A Framer keeps the identity of the last encoded request, it must not be
// shared by concurrent requests.
type Framer interface {
	// Encode returns the adu of pdu for slaveID and arms the framer to
	// expect its response.
	Encode(slaveID byte, pdu ProtocolDataUnit) ([]byte, error)
	// Scan examines the head of buf.
	// advance is the number of bytes to drop from buf, it is non zero on
	// every state except FrameIncomplete. pdu is valid on FrameComplete only
	// and does not alias buf. a non nil err means the stream can not be
	// resynchronized.
	Scan(buf []byte) (state FrameState, advance int, pdu ProtocolDataUnit, err error)
}

// checkPduSize checks the pdu fits in one adu.
func checkPduSize(pdu ProtocolDataUnit) error {
	if length := 1 + len(pdu.Data); length > pduMaxSize {
		return fmt.Errorf("modbus: length of pdu '%v' must not be bigger than '%v': %w",
			length, pduMaxSize, ErrPDUSize)
	}
	return nil
}

// clonePdu copies the pdu out of the receive window.
func clonePdu(b []byte) ProtocolDataUnit {
	data := make([]byte, len(b)-1)
	copy(data, b[1:])
	return ProtocolDataUnit{b[0], data}
}
