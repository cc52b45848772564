/*!
 * Constants which defines the format of a modbus frame. The example is
 * shown for a Modbus RTU/ASCII frame. Note that the Modbus PDU is not
 * dependent on the underlying transport.
 *
 * <code>
 * <------------------------ MODBUS SERIAL LINE ADU (1) ------------------->
 *              <----------- MODBUS PDU (1') ---------------->
 *  +-----------+---------------+----------------------------+-------------+
 *  | Address   | Function Code | Data                       | CRC/LRC     |
 *  +-----------+---------------+----------------------------+-------------+
 *  |           |               |                                   |
 * (2)        (3/2')           (3')                                (4)
 *
 * (1)  ... SerADUMaxSize    = 256
 * (2)  ... SerAddressOffset = 0
 * (3)  ... SerPDUOffset     = 1
 * (4)  ... SerCrcSize       = 2 (little-endian on the wire)
 *      ... SerLrcSize       = 1
 *
 * (1') ... SerPDUMaxSize         = 253
 * (2') ... SerPDUFuncCodeOffset  = 0
 * (3') ... SerPDUDataOffset      = 1
 * </code>
 *
 * ASCII transmits the same ADU as ':' + HEX(Address) + HEX(PDU) + HEX(LRC) + "\r\n",
 * two uppercase hex characters per byte.
 */

/*!
 * <------------------------ MODBUS TCP/IP ADU(1) ------------------------->
 *                              <----------- MODBUS PDU (1') -------------->
 *  +-----------+---------------+------------------------------------------+
 *  | TID | PID | Length | UID  | Function Code  | Data                    |
 *  +-----------+---------------+------------------------------------------+
 *  |     |     |        |      |
 * (2)   (3)   (4)      (5)    (6)
 *
 * (2)  ... TCPTidOffset    = 0 (Transaction Identifier - 2 Byte)
 * (3)  ... TCPPidOffset    = 2 (Protocol Identifier - 2 Byte, always 0)
 * (4)  ... TCPLengthOffset = 4 (Number of bytes - 2 Byte)( UID + PDU length )
 * (5)  ... TCPUidOffset    = 6 (Unit Identifier - 1 Byte)
 * (6)  ... TCPPDUOffset    = 7 (Modbus PDU )
 *
 * (1)  ... TCPADUMaxSize   = 260 Modbus TCP/IP Application Data Unit
 * (1') ... SerPDUMaxSize   = 253 Modbus Protocol Data Unit
 */

/*
Package modbus provides a modbus master for TCP, RTU and ASCII.

Every transport shares one request pipeline: the request PDU is wrapped by a
Framer, written to the Transport, and the response is assembled from the raw
byte stream by a Synchronizer that resynchronizes on noise, checksum failures
and frames addressed to other slaves.
*/
package modbus

import (
	"context"
	"time"

	"github.com/goburrow/serial"
)

// proto address limit.
const (
	AddressBroadCast = 0
	AddressMin       = 1
	AddressMax       = 247
)

const (
	pduMinSize = 1   // funcCode(1)
	pduMaxSize = 253 // funcCode(1) + data(252)

	rtuAduMinSize    = 4   // address(1) + funcCode(1) + crc(2)
	rtuAduMaxSize    = 256 // address(1) + PDU(253) + crc(2)
	rtuExceptionSize = 5   // address(1) + funcCode(1) + exceptionCode(1) + crc(2)
	rtuWriteRspSize  = 8   // address(1) + funcCode(1) + address(2) + value/quantity(2) + crc(2)

	asciiAduMinSize       = 3 // address(1) + funcCode(1) + lrc(1)
	asciiCharacterMinSize = 9 // ':' + 3*2 hex + "\r\n"
	asciiCharacterMaxSize = 513

	tcpProtocolIdentifier = 0x0000
	// Modbus Application Protocol
	tcpHeaderMbapSize = 7 // MBAP header
	tcpAduMaxSize     = 260
	tcpLengthMin      = 2   // unitID + funcCode
	tcpLengthMax      = 254 // unitID + PDU(253)
)

// proto register limit
const (
	// Bits
	ReadBitsQuantityMin  = 1    // 0x0001
	ReadBitsQuantityMax  = 2000 // 0x07d0
	WriteBitsQuantityMin = 1    // 1
	WriteBitsQuantityMax = 1968 // 0x07b0
	// 16 Bits
	ReadRegQuantityMin  = 1   // 1
	ReadRegQuantityMax  = 125 // 0x007d
	WriteRegQuantityMin = 1   // 1
	WriteRegQuantityMax = 123 // 0x007b
)

// Function Code
const (
	// Bit access
	FuncCodeReadCoils          = 0x01
	FuncCodeReadDiscreteInputs = 0x02
	FuncCodeWriteSingleCoil    = 0x05
	FuncCodeWriteMultipleCoils = 0x0F

	// 16-bit access
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleRegisters = 0x10

	// funcCodeExceptionFlag is set on the function code of an exception response.
	funcCodeExceptionFlag = 0x80
)

// ProtocolDataUnit (PDU) is independent of underlying communication layers.
type ProtocolDataUnit struct {
	FuncCode byte
	Data     []byte
}

// Bytes returns the pdu as function code followed by data.
func (sf ProtocolDataUnit) Bytes() []byte {
	b := make([]byte, 0, 1+len(sf.Data))
	b = append(b, sf.FuncCode)
	return append(b, sf.Data...)
}

// IsException reports whether the pdu is an exception response.
func (sf ProtocolDataUnit) IsException() bool {
	return sf.FuncCode&funcCodeExceptionFlag != 0
}

// protocolFrame protocol frame in pool
type protocolFrame struct {
	adu []byte
}

// ClientProvider is the interface implements underlying methods.
type ClientProvider interface {
	// Connect try to connect the remote server
	Connect(ctx context.Context) error
	// IsConnected returns a bool signifying whether
	// the client is connected or not.
	IsConnected() bool
	// LogMode set enable or disable log output when you has set logger
	LogMode(enable bool)
	// Close disconnect the remote server
	Close() error
	// Send request to the remote server and wait for the matching response.
	// an exception response is returned as is, decode it with the Parse functions.
	Send(ctx context.Context, slaveID byte, request ProtocolDataUnit) (ProtocolDataUnit, error)
	// SendPdu send pdu request to the remote server
	SendPdu(ctx context.Context, slaveID byte, pduRequest []byte) (pduResponse []byte, err error)

	// private interface
	// setLogProvider set logger provider
	setLogProvider(p LogProvider)
	// setSerialConfig set serial config
	setSerialConfig(config serial.Config)
	// setTCPTimeout set tcp dial timeout
	setTCPTimeout(t time.Duration)
	// setTimeout set per request timeout
	setTimeout(t time.Duration)
	// setCRC16Variant set rtu crc variant
	setCRC16Variant(v CRC16Variant)
	// setInterFrameDelay set the extra silence kept between serial frames
	setInterFrameDelay(t time.Duration)
}

// LogProvider RFC5424 log message levels only Debug and Error
type LogProvider interface {
	Errorf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}
