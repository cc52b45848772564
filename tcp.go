package modbus

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// TCPFramer implements Framer for modbus TCP.
type TCPFramer struct {
	// For synchronization between messages of server & client
	transactionID uint32
	// identity of the outstanding request
	expectTID uint16
}

var _ Framer = (*TCPFramer)(nil)

// NewTCPFramer new tcp framer, the first request carries transaction id 1.
func NewTCPFramer() *TCPFramer {
	return &TCPFramer{}
}

// Encode modbus application protocol header & pdu to TCP frame,return adu
//  ---- MBAP header ----
//  Transaction identifier: 2 bytes
//  Protocol identifier: 2 bytes
//  Length: 2 bytes
//  Unit identifier: 1 byte
//  ---- data Unit ----
//  Function code: 1 byte
//  Data: n bytes
func (sf *TCPFramer) Encode(slaveID byte, pdu ProtocolDataUnit) ([]byte, error) {
	if err := checkPduSize(pdu); err != nil {
		return nil, err
	}
	tid := uint16(atomic.AddUint32(&sf.transactionID, 1))
	length := tcpHeaderMbapSize + 1 + len(pdu.Data)

	// Length = sizeof(UnitId) + sizeof(FuncCode) + Data
	mbapLength := uint16(2 + len(pdu.Data))

	adu := make([]byte, length)
	binary.BigEndian.PutUint16(adu, tid)                       // MBAP Transaction identifier
	binary.BigEndian.PutUint16(adu[2:], tcpProtocolIdentifier) // MBAP Protocol identifier
	binary.BigEndian.PutUint16(adu[4:], mbapLength)            // MBAP Length
	adu[6] = slaveID                                           // MBAP Unit identifier
	adu[tcpHeaderMbapSize] = pdu.FuncCode                      // PDU funcCode
	copy(adu[tcpHeaderMbapSize+1:], pdu.Data)                  // PDU data

	sf.expectTID = tid
	return adu, nil
}

// Scan extracts the pdu of the outstanding transaction.
// the stream is self delimiting, a frame of another transaction is
// skipped whole, a bad protocol identifier or length is fatal.
func (sf *TCPFramer) Scan(buf []byte) (FrameState, int, ProtocolDataUnit, error) {
	if len(buf) < tcpHeaderMbapSize {
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}
	head := decodeMbapHeader(buf)
	if head.protocolID != tcpProtocolIdentifier {
		return FrameMalformed, 0, ProtocolDataUnit{},
			fmt.Errorf("modbus: response protocol id '%v' must be '%v': %w",
				head.protocolID, tcpProtocolIdentifier, ErrProtocolID)
	}
	if head.length < tcpLengthMin || head.length > tcpLengthMax {
		return FrameMalformed, 0, ProtocolDataUnit{},
			fmt.Errorf("modbus: length in response header '%v' must be between '%v' and '%v': %w",
				head.length, tcpLengthMin, tcpLengthMax, ErrInvalidLength)
	}
	total := tcpHeaderMbapSize - 1 + int(head.length)
	if len(buf) < total {
		return FrameIncomplete, 0, ProtocolDataUnit{}, nil
	}
	if head.transactionID != sf.expectTID {
		return FrameAddressMismatch, total, ProtocolDataUnit{}, nil
	}
	return FrameComplete, total, clonePdu(buf[tcpHeaderMbapSize:total]), nil
}

// protocolTCPHeader independent of underlying communication layers.
type protocolTCPHeader struct {
	transactionID uint16
	protocolID    uint16
	length        uint16
	unitID        uint8
}

// decodeMbapHeader reads the 7 byte mbap header at the head of adu.
func decodeMbapHeader(adu []byte) protocolTCPHeader {
	return protocolTCPHeader{
		transactionID: binary.BigEndian.Uint16(adu),
		protocolID:    binary.BigEndian.Uint16(adu[2:]),
		length:        binary.BigEndian.Uint16(adu[4:]),
		unitID:        adu[6],
	}
}
