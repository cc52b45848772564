package modbus

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// protocol frame: asciiStart + ( slaveID + functionCode + data + lrc ) + CR + LF.
const (
	asciiStart = ':'
	asciiEnd   = "\r\n"
	hexTable   = "0123456789ABCDEF"
)

// ASCIIFramer implements Framer for modbus ASCII.
type ASCIIFramer struct {
	expectSlave byte
}

var _ Framer = (*ASCIIFramer)(nil)

// NewASCIIFramer new ascii framer.
func NewASCIIFramer() *ASCIIFramer {
	return &ASCIIFramer{}
}

// Encode slaveID & PDU to a ASCII frame,return adu
//  Start           : 1 char
//  slaveID         : 2 chars
//  ---- data Unit ----
//  Function        : 2 chars
//  Data            : 0 up to 2x252 chars
//  ---- checksum ----
//  LRC             : 2 chars
//  End             : 2 chars
func (sf *ASCIIFramer) Encode(slaveID byte, pdu ProtocolDataUnit) ([]byte, error) {
	if err := checkPduSize(pdu); err != nil {
		return nil, err
	}
	// Exclude the beginning colon and terminating CRLF pair characters
	var l lrc
	lrcVal := l.reset().push(slaveID, pdu.FuncCode).push(pdu.Data...).value()

	length := len(pdu.Data) + asciiAduMinSize
	frame := make([]byte, 0, length*2+3)
	frame = append(frame, asciiStart)
	frame = appendHex(frame, slaveID, pdu.FuncCode)
	frame = appendHex(frame, pdu.Data...)
	frame = appendHex(frame, lrcVal)

	sf.expectSlave = slaveID
	return append(frame, asciiEnd...), nil
}

func appendHex(dst []byte, data ...byte) []byte {
	for _, v := range data {
		dst = append(dst, hexTable[v>>4], hexTable[v&0x0f])
	}
	return dst
}

// Scan locates ':' ... "\r\n" lines. bytes before ':' are noise, a located
// line that fails hex, lrc or address checks is dropped whole.
func (sf *ASCIIFramer) Scan(buf []byte) (FrameState, int, ProtocolDataUnit, error) {
	if len(buf) == 0 {
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}
	start := bytes.IndexByte(buf, asciiStart)
	switch {
	case start < 0:
		return FrameNoise, len(buf), ProtocolDataUnit{}, nil
	case start > 0:
		return FrameNoise, start, ProtocolDataUnit{}, nil
	}

	end := bytes.Index(buf, []byte(asciiEnd))
	// a new start inside the line means the previous one was cut short
	if next := bytes.IndexByte(buf[1:], asciiStart); next >= 0 && (end < 0 || next+1 < end) {
		return FrameNoise, next + 1, ProtocolDataUnit{}, nil
	}
	if end < 0 {
		if len(buf) >= asciiCharacterMaxSize {
			return FrameNoise, 1, ProtocolDataUnit{}, nil
		}
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}

	frameLen := end + len(asciiEnd)
	adu, err := decodeASCIIHex(buf[:frameLen])
	if err != nil {
		return FrameMalformed, frameLen, ProtocolDataUnit{}, nil
	}
	if !VerifyLRC8(adu) {
		return FrameChecksumMismatch, frameLen, ProtocolDataUnit{}, nil
	}
	if adu[0] != sf.expectSlave {
		return FrameAddressMismatch, frameLen, ProtocolDataUnit{}, nil
	}
	// adu is freshly decoded, no need to clone
	return FrameComplete, frameLen, ProtocolDataUnit{adu[1], adu[2 : len(adu)-1]}, nil
}

// decodeASCIIHex checks the markers of frame and returns the binary adu
// (slaveID + pdu + lrc) without verifying the lrc.
func decodeASCIIHex(frame []byte) ([]byte, error) {
	switch {
	case len(frame) < asciiCharacterMinSize: // Minimum size (including address, function and LRC)
		return nil, fmt.Errorf("modbus: response length '%v' does not meet minimum '%v': %w",
			len(frame), asciiCharacterMinSize, ErrFormat)
	case frame[0] != asciiStart: // First char must be a colons
		return nil, fmt.Errorf("modbus: response frame '%x'... is not started with '%x': %w",
			frame[0], asciiStart, ErrFormat)
	case string(frame[len(frame)-len(asciiEnd):]) != asciiEnd: // 2 last chars must be \r\n
		return nil, fmt.Errorf("modbus: response frame ...'%x' is not ended with '%x': %w",
			frame[len(frame)-len(asciiEnd):], asciiEnd, ErrFormat)
	}
	dat := frame[1 : len(frame)-len(asciiEnd)]
	if len(dat)%2 != 0 {
		return nil, fmt.Errorf("modbus: response hex length '%v' is not an even number: %w", len(dat), ErrFormat)
	}
	buf := make([]byte, hex.DecodedLen(len(dat)))
	if _, err := hex.Decode(buf, dat); err != nil {
		return nil, fmt.Errorf("modbus: %v: %w", err, ErrFormat)
	}
	return buf, nil
}

// DecodeASCIIFrame extracts slaveID & PDU from a complete ASCII frame and verify LRC.
func DecodeASCIIFrame(frame []byte) (uint8, ProtocolDataUnit, error) {
	adu, err := decodeASCIIHex(frame)
	if err != nil {
		return 0, ProtocolDataUnit{}, err
	}
	if !VerifyLRC8(adu) {
		return 0, ProtocolDataUnit{}, fmt.Errorf("modbus: response lrc '%x' does not match expected '%x': %w",
			adu[len(adu)-1], LRC8(adu[:len(adu)-1]), ErrLRC)
	}
	return adu[0], ProtocolDataUnit{adu[1], adu[2 : len(adu)-1]}, nil
}
