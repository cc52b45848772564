package modbus

import (
	"encoding/binary"
	"fmt"
)

func checkQuantity(quantity, min, max uint16) error {
	if quantity < min || quantity > max {
		return fmt.Errorf("modbus: quantity '%v' must be between '%v' and '%v': %w",
			quantity, min, max, ErrOutOfRange)
	}
	return nil
}

func encodeRead(funcCode byte, address, quantity, max uint16) (ProtocolDataUnit, error) {
	if err := checkQuantity(quantity, 1, max); err != nil {
		return ProtocolDataUnit{}, err
	}
	return ProtocolDataUnit{funcCode, uint162Bytes(address, quantity)}, nil
}

// Request:
//  Function code         : 1 byte (0x01)
//  Starting address      : 2 bytes
//  Quantity of coils     : 2 bytes
// Response:
//  Function code         : 1 byte (0x01)
//  Byte count            : 1 byte
//  Coil status           : N* bytes (=N or N+1)

// EncodeReadCoils builds the read coils request, quantity 1 to 2000.
func EncodeReadCoils(address, quantity uint16) (ProtocolDataUnit, error) {
	return encodeRead(FuncCodeReadCoils, address, quantity, ReadBitsQuantityMax)
}

// EncodeReadDiscreteInputs builds the read discrete inputs request, quantity 1 to 2000.
func EncodeReadDiscreteInputs(address, quantity uint16) (ProtocolDataUnit, error) {
	return encodeRead(FuncCodeReadDiscreteInputs, address, quantity, ReadBitsQuantityMax)
}

// Request:
//  Function code         : 1 byte (0x03)
//  Starting address      : 2 bytes
//  Quantity of registers : 2 bytes
// Response:
//  Function code         : 1 byte (0x03)
//  Byte count            : 1 byte
//  Register value        : Nx2 bytes

// EncodeReadHoldingRegisters builds the read holding registers request, quantity 1 to 125.
func EncodeReadHoldingRegisters(address, quantity uint16) (ProtocolDataUnit, error) {
	return encodeRead(FuncCodeReadHoldingRegisters, address, quantity, ReadRegQuantityMax)
}

// EncodeReadInputRegisters builds the read input registers request, quantity 1 to 125.
func EncodeReadInputRegisters(address, quantity uint16) (ProtocolDataUnit, error) {
	return encodeRead(FuncCodeReadInputRegisters, address, quantity, ReadRegQuantityMax)
}

// Request:
//  Function code         : 1 byte (0x05)
//  Output address        : 2 bytes
//  Output value          : 2 bytes
// Response: echo of the request

// EncodeWriteSingleCoil builds the write single coil request.
func EncodeWriteSingleCoil(address uint16, isOn bool) ProtocolDataUnit {
	var value uint16
	if isOn { // The requested ON/OFF state can only be 0xFF00 and 0x0000
		value = 0xFF00
	}
	return ProtocolDataUnit{FuncCodeWriteSingleCoil, uint162Bytes(address, value)}
}

// Request:
//  Function code         : 1 byte (0x06)
//  Register address      : 2 bytes
//  Register value        : 2 bytes
// Response: echo of the request

// EncodeWriteSingleRegister builds the write single register request.
func EncodeWriteSingleRegister(address, value uint16) ProtocolDataUnit {
	return ProtocolDataUnit{FuncCodeWriteSingleRegister, uint162Bytes(address, value)}
}

// Request:
//  Function code         : 1 byte (0x0F)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes
//  Byte count            : 1 byte
//  Outputs value         : N* bytes
// Response:
//  Function code         : 1 byte (0x0F)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes

// EncodeWriteMultipleCoils builds the write multiple coils request, 1 to 1968 coils.
func EncodeWriteMultipleCoils(address uint16, values []bool) (ProtocolDataUnit, error) {
	if len(values) > WriteBitsQuantityMax {
		return ProtocolDataUnit{}, fmt.Errorf("modbus: quantity '%v' must be between '%v' and '%v': %w",
			len(values), WriteBitsQuantityMin, WriteBitsQuantityMax, ErrOutOfRange)
	}
	quantity := uint16(len(values))
	if err := checkQuantity(quantity, WriteBitsQuantityMin, WriteBitsQuantityMax); err != nil {
		return ProtocolDataUnit{}, err
	}
	return ProtocolDataUnit{
		FuncCodeWriteMultipleCoils,
		pduDataBlockSuffix(packBits(values), address, quantity),
	}, nil
}

// Request:
//  Function code         : 1 byte (0x10)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes
//  Byte count            : 1 byte
//  Registers value       : N* bytes
// Response:
//  Function code         : 1 byte (0x10)
//  Starting address      : 2 bytes
//  Quantity of registers : 2 bytes

// EncodeWriteMultipleRegisters builds the write multiple registers request, 1 to 123 registers.
func EncodeWriteMultipleRegisters(address uint16, values []uint16) (ProtocolDataUnit, error) {
	if len(values) > WriteRegQuantityMax {
		return ProtocolDataUnit{}, fmt.Errorf("modbus: quantity '%v' must be between '%v' and '%v': %w",
			len(values), WriteRegQuantityMin, WriteRegQuantityMax, ErrOutOfRange)
	}
	return EncodeWriteMultipleRegistersBytes(address, RegistersToBytes(values))
}

// EncodeWriteMultipleRegistersBytes is EncodeWriteMultipleRegisters with the
// register payload already laid out as big-endian bytes, length must be even.
func EncodeWriteMultipleRegistersBytes(address uint16, value []byte) (ProtocolDataUnit, error) {
	if len(value)%2 != 0 {
		return ProtocolDataUnit{}, fmt.Errorf("modbus: register payload length '%v' must be even: %w",
			len(value), ErrLengthMismatch)
	}
	if len(value)/2 > WriteRegQuantityMax {
		return ProtocolDataUnit{}, fmt.Errorf("modbus: quantity '%v' must be between '%v' and '%v': %w",
			len(value)/2, WriteRegQuantityMin, WriteRegQuantityMax, ErrOutOfRange)
	}
	quantity := uint16(len(value) / 2)
	if err := checkQuantity(quantity, WriteRegQuantityMin, WriteRegQuantityMax); err != nil {
		return ProtocolDataUnit{}, err
	}
	return ProtocolDataUnit{
		FuncCodeWriteMultipleRegisters,
		pduDataBlockSuffix(value, address, quantity),
	}, nil
}

// checkResponse fails with the exception carried by response, or when
// response does not answer funcCode.
func checkResponse(response ProtocolDataUnit, funcCode byte) error {
	if response.IsException() {
		if response.FuncCode&^funcCodeExceptionFlag != funcCode {
			return fmt.Errorf("modbus: exception of function '%v' does not match request '%v': %w",
				response.FuncCode&^funcCodeExceptionFlag, funcCode, ErrUnexpectedFunction)
		}
		return responseError(response)
	}
	if response.FuncCode != funcCode {
		return fmt.Errorf("modbus: response function code '%v' does not match request '%v': %w",
			response.FuncCode, funcCode, ErrUnexpectedFunction)
	}
	return nil
}

// readPayload returns the byte counted block of a read response.
func readPayload(response ProtocolDataUnit, funcCode byte) ([]byte, error) {
	if err := checkResponse(response, funcCode); err != nil {
		return nil, err
	}
	if len(response.Data) < 1 {
		return nil, fmt.Errorf("modbus: response data is empty: %w", ErrTruncated)
	}
	count := int(response.Data[0])
	if count > len(response.Data)-1 {
		return nil, fmt.Errorf("modbus: response byte count '%v' exceeds payload size '%v': %w",
			count, len(response.Data)-1, ErrTruncated)
	}
	return response.Data[1 : 1+count], nil
}

func parseBits(response ProtocolDataUnit, funcCode byte, quantity uint16) ([]bool, error) {
	payload, err := readPayload(response, funcCode)
	if err != nil {
		return nil, err
	}
	if len(payload)*8 < int(quantity) {
		return nil, fmt.Errorf("modbus: response byte count '%v' too small for quantity '%v': %w",
			len(payload), quantity, ErrTruncated)
	}
	return unpackBits(payload, quantity), nil
}

// ParseReadCoils decodes the coil status of a read coils response.
func ParseReadCoils(response ProtocolDataUnit, quantity uint16) ([]bool, error) {
	return parseBits(response, FuncCodeReadCoils, quantity)
}

// ParseReadDiscreteInputs decodes the input status of a read discrete inputs response.
func ParseReadDiscreteInputs(response ProtocolDataUnit, quantity uint16) ([]bool, error) {
	return parseBits(response, FuncCodeReadDiscreteInputs, quantity)
}

// ParseRegistersPayload returns the raw register bytes of a read registers
// response for function code funcCode.
func ParseRegistersPayload(response ProtocolDataUnit, funcCode byte) ([]byte, error) {
	payload, err := readPayload(response, funcCode)
	if err != nil {
		return nil, err
	}
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("modbus: response byte count '%v' is odd: %w", len(payload), ErrInvalidResponse)
	}
	return payload, nil
}

// ParseReadHoldingRegisters decodes a read holding registers response.
func ParseReadHoldingRegisters(response ProtocolDataUnit) ([]uint16, error) {
	payload, err := ParseRegistersPayload(response, FuncCodeReadHoldingRegisters)
	if err != nil {
		return nil, err
	}
	return BytesToRegisters(payload)
}

// ParseReadInputRegisters decodes a read input registers response.
func ParseReadInputRegisters(response ProtocolDataUnit) ([]uint16, error) {
	payload, err := ParseRegistersPayload(response, FuncCodeReadInputRegisters)
	if err != nil {
		return nil, err
	}
	return BytesToRegisters(payload)
}

func parseEcho(response ProtocolDataUnit, funcCode byte) (uint16, uint16, error) {
	if err := checkResponse(response, funcCode); err != nil {
		return 0, 0, err
	}
	if len(response.Data) < 4 {
		return 0, 0, fmt.Errorf("modbus: response data size '%v' does not match expected '%v': %w",
			len(response.Data), 4, ErrTruncated)
	}
	return binary.BigEndian.Uint16(response.Data), binary.BigEndian.Uint16(response.Data[2:]), nil
}

// ParseWriteSingleCoil decodes the echo of a write single coil request.
func ParseWriteSingleCoil(response ProtocolDataUnit) (address uint16, isOn bool, err error) {
	address, value, err := parseEcho(response, FuncCodeWriteSingleCoil)
	if err != nil {
		return 0, false, err
	}
	switch value {
	case 0xFF00:
		isOn = true
	case 0x0000:
	default:
		return 0, false, fmt.Errorf("modbus: response coil value '%#04x' is neither 0xFF00 nor 0x0000: %w",
			value, ErrInvalidResponse)
	}
	return address, isOn, nil
}

// ParseWriteSingleRegister decodes the echo of a write single register request.
func ParseWriteSingleRegister(response ProtocolDataUnit) (address, value uint16, err error) {
	return parseEcho(response, FuncCodeWriteSingleRegister)
}

// ParseWriteMultipleCoils decodes the address and quantity of a write multiple coils response.
func ParseWriteMultipleCoils(response ProtocolDataUnit) (address, quantity uint16, err error) {
	return parseEcho(response, FuncCodeWriteMultipleCoils)
}

// ParseWriteMultipleRegisters decodes the address and quantity of a write multiple registers response.
func ParseWriteMultipleRegisters(response ProtocolDataUnit) (address, quantity uint16, err error) {
	return parseEcho(response, FuncCodeWriteMultipleRegisters)
}

// uint162Bytes creates a sequence of uint16 data.
func uint162Bytes(value ...uint16) []byte {
	data := make([]byte, 2*len(value))
	for i, v := range value {
		binary.BigEndian.PutUint16(data[i*2:], v)
	}
	return data
}

// pduDataBlockSuffix creates a sequence of uint16 data and append the suffix plus its length.
func pduDataBlockSuffix(suffix []byte, value ...uint16) []byte {
	length := len(value) * 2
	data := make([]byte, length+1+len(suffix))
	for i, v := range value {
		binary.BigEndian.PutUint16(data[i*2:], v)
	}
	data[length] = uint8(len(suffix))
	copy(data[length+1:], suffix)
	return data
}
