package modbus

import (
	"errors"
	"fmt"
)

// validation errors, returned before any byte is written.
var (
	// ErrOutOfRange quantity or value count outside the protocol limits
	ErrOutOfRange = errors.New("modbus: value out of range")
	// ErrLengthMismatch source length is not a multiple of the element width
	ErrLengthMismatch = errors.New("modbus: length mismatch")
	// ErrInvalidSlaveID slave id outside the configured address range
	ErrInvalidSlaveID = errors.New("modbus: invalid slave id")
	// ErrPDUSize pdu exceeds what the framing can carry
	ErrPDUSize = errors.New("modbus: invalid pdu size")
)

// framing and response errors.
var (
	// ErrProtocolID mbap protocol identifier is not zero
	ErrProtocolID = errors.New("modbus: invalid protocol identifier")
	// ErrInvalidLength mbap length field out of range
	ErrInvalidLength = errors.New("modbus: invalid mbap length")
	// ErrFormat ascii frame with odd length or non hex characters
	ErrFormat = errors.New("modbus: invalid frame format")
	// ErrCRC rtu checksum mismatch
	ErrCRC = errors.New("modbus: crc mismatch")
	// ErrLRC ascii checksum mismatch
	ErrLRC = errors.New("modbus: lrc mismatch")
	// ErrTruncated byte count exceeds the available payload
	ErrTruncated = errors.New("modbus: truncated payload")
	// ErrUnexpectedFunction response function code does not match the request
	ErrUnexpectedFunction = errors.New("modbus: unexpected function code")
	// ErrInvalidResponse response is well framed but inconsistent with the request
	ErrInvalidResponse = errors.New("modbus: invalid response")
)

// request outcome errors.
var (
	// ErrTimeout no matching frame assembled before the request deadline
	ErrTimeout = errors.New("modbus: request timeout")
	// ErrClosedConnection 连接已关闭
	ErrClosedConnection = errors.New("modbus: use of closed connection")
	// ErrNotConnected request issued before Connect
	ErrNotConnected = errors.New("modbus: not connected")
)

// ExceptionCode is the device defined reason carried by an exception response.
type ExceptionCode byte

// Exception Code
const (
	ExceptionCodeIllegalFunction                    ExceptionCode = 0x01
	ExceptionCodeIllegalDataAddress                 ExceptionCode = 0x02
	ExceptionCodeIllegalDataValue                   ExceptionCode = 0x03
	ExceptionCodeServerDeviceFailure                ExceptionCode = 0x04
	ExceptionCodeAcknowledge                        ExceptionCode = 0x05
	ExceptionCodeServerDeviceBusy                   ExceptionCode = 0x06
	ExceptionCodeMemoryParityError                  ExceptionCode = 0x08
	ExceptionCodeGatewayPathUnavailable             ExceptionCode = 0x0A
	ExceptionCodeGatewayTargetDeviceFailedToRespond ExceptionCode = 0x0B
)

var exceptionCodeName = map[ExceptionCode]string{
	ExceptionCodeIllegalFunction:                    "illegal function",
	ExceptionCodeIllegalDataAddress:                 "illegal data address",
	ExceptionCodeIllegalDataValue:                   "illegal data value",
	ExceptionCodeServerDeviceFailure:                "server device failure",
	ExceptionCodeAcknowledge:                        "acknowledge",
	ExceptionCodeServerDeviceBusy:                   "server device busy",
	ExceptionCodeMemoryParityError:                  "memory parity error",
	ExceptionCodeGatewayPathUnavailable:             "gateway path unavailable",
	ExceptionCodeGatewayTargetDeviceFailedToRespond: "gateway target device failed to respond",
}

// String implements fmt.Stringer.
func (c ExceptionCode) String() string {
	if name, ok := exceptionCodeName[c]; ok {
		return name
	}
	return "unknown"
}

// ExceptionError implements error interface.
type ExceptionError struct {
	FuncCode      byte // function code of the request
	ExceptionCode ExceptionCode
}

// Error converts known modbus exception code to error message.
func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus: function '%v' exception '%v' (%s)", e.FuncCode, byte(e.ExceptionCode), e.ExceptionCode)
}

// responseError build the exception error from an exception response pdu.
func responseError(response ProtocolDataUnit) error {
	if len(response.Data) < 1 {
		return fmt.Errorf("modbus: exception response of function '%v' without code: %w",
			response.FuncCode&^funcCodeExceptionFlag, ErrTruncated)
	}
	return &ExceptionError{
		FuncCode:      response.FuncCode &^ funcCodeExceptionFlag,
		ExceptionCode: ExceptionCode(response.Data[0]),
	}
}
