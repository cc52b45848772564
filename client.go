package modbus

import (
	"context"
	"fmt"
	"sync/atomic"
)

// check implements Client interface.
var _ Client = (*client)(nil)

// Option custom option
type Option func(c *client)

// WithAddressMin set custom address min value, default AddressMin
func WithAddressMin(v byte) Option {
	return func(c *client) {
		c.addressMin = v
	}
}

// WithAddressMax set custom address max value, default AddressMax
func WithAddressMax(v byte) Option {
	return func(c *client) {
		c.addressMax = v
	}
}

// WithOneBasedAddressing register addresses given to the client start
// at 1, they are decremented before going on the wire.
func WithOneBasedAddressing() Option {
	return func(c *client) {
		c.oneBased = true
	}
}

// WithByteOrder set the byte order of the typed register methods, default BigEndian.
func WithByteOrder(order ByteOrder) Option {
	return func(c *client) {
		c.SetByteOrder(order)
	}
}

// client implements Client interface.
type client struct {
	ClientProvider
	addressMin byte
	addressMax byte
	oneBased   bool
	byteOrder  uint32
}

// NewClient creates a new modbus client with given backend handler.
// default proto address limit is 1~247 AddressMax
// you can change with custom option.
// when your device have address upon addressMax
func NewClient(p ClientProvider, opts ...Option) Client {
	c := &client{ClientProvider: p, addressMin: AddressMin, addressMax: AddressMax}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTCPClient creates a tcp client for address, host:port.
func NewTCPClient(address string, opts ...ClientProviderOption) Client {
	return NewClient(NewTCPClientProvider(address, opts...))
}

// NewRTUClient creates a rtu client, configure the port with WithSerialConfig.
func NewRTUClient(opts ...ClientProviderOption) Client {
	return NewClient(NewRTUClientProvider(opts...))
}

// NewASCIIClient creates an ascii client, configure the port with WithSerialConfig.
func NewASCIIClient(opts ...ClientProviderOption) Client {
	return NewClient(NewASCIIClientProvider(opts...))
}

// ByteOrder implements Client.
func (sf *client) ByteOrder() ByteOrder {
	return ByteOrder(atomic.LoadUint32(&sf.byteOrder))
}

// SetByteOrder implements Client.
func (sf *client) SetByteOrder(order ByteOrder) {
	atomic.StoreUint32(&sf.byteOrder, uint32(order))
}

func (sf *client) address(address uint16) uint16 {
	if sf.oneBased && address > 0 {
		return address - 1
	}
	return address
}

func (sf *client) checkSlaveID(slaveID, lowest byte) error {
	if slaveID < lowest || slaveID > sf.addressMax {
		return fmt.Errorf("modbus: slaveID '%v' must be between '%v' and '%v': %w",
			slaveID, lowest, sf.addressMax, ErrInvalidSlaveID)
	}
	return nil
}

// request validates slaveID, sends pdu and returns the response.
// broadcast is only allowed for writes.
func (sf *client) request(ctx context.Context, slaveID byte, pdu ProtocolDataUnit, write bool) (ProtocolDataUnit, error) {
	lowest := sf.addressMin
	if write {
		lowest = AddressBroadCast
	}
	if err := sf.checkSlaveID(slaveID, lowest); err != nil {
		return ProtocolDataUnit{}, err
	}
	return sf.Send(ctx, slaveID, pdu)
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x01)
//  Starting address      : 2 bytes
//  Quantity of coils     : 2 bytes
// Response:
//  Function code         : 1 byte (0x01)
//  Byte count            : 1 byte
//  Coil status           : N* bytes (=N or N+1)
//  return coils status
func (sf *client) ReadCoils(ctx context.Context, slaveID byte, address, quantity uint16) ([]bool, error) {
	request, err := EncodeReadCoils(sf.address(address), quantity)
	if err != nil {
		return nil, err
	}
	response, err := sf.request(ctx, slaveID, request, false)
	if err != nil {
		return nil, err
	}
	return ParseReadCoils(response, quantity)
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x02)
//  Starting address      : 2 bytes
//  Quantity of inputs    : 2 bytes
// Response:
//  Function code         : 1 byte (0x02)
//  Byte count            : 1 byte
//  Input status          : N* bytes (=N or N+1)
//  return result data
func (sf *client) ReadDiscreteInputs(ctx context.Context, slaveID byte, address, quantity uint16) ([]bool, error) {
	request, err := EncodeReadDiscreteInputs(sf.address(address), quantity)
	if err != nil {
		return nil, err
	}
	response, err := sf.request(ctx, slaveID, request, false)
	if err != nil {
		return nil, err
	}
	return ParseReadDiscreteInputs(response, quantity)
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x05)
//  Output address        : 2 bytes
//  Output value          : 2 bytes
// Response:
//  Function code         : 1 byte (0x05)
//  Output address        : 2 bytes
//  Output value          : 2 bytes
func (sf *client) WriteSingleCoil(ctx context.Context, slaveID byte, address uint16, isOn bool) error {
	address = sf.address(address)
	response, err := sf.request(ctx, slaveID, EncodeWriteSingleCoil(address, isOn), true)
	if err != nil {
		return err
	}
	rspAddress, rspOn, err := ParseWriteSingleCoil(response)
	if err != nil {
		return err
	}
	if err = checkEcho("address", rspAddress, address); err != nil {
		return err
	}
	if rspOn != isOn {
		return fmt.Errorf("modbus: response value '%v' does not match request '%v': %w",
			rspOn, isOn, ErrInvalidResponse)
	}
	return nil
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x0F)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes
//  Byte count            : 1 byte
//  Outputs value         : N* bytes
// Response:
//  Function code         : 1 byte (0x0F)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes
func (sf *client) WriteMultipleCoils(ctx context.Context, slaveID byte, address uint16, values []bool) error {
	address = sf.address(address)
	request, err := EncodeWriteMultipleCoils(address, values)
	if err != nil {
		return err
	}
	response, err := sf.request(ctx, slaveID, request, true)
	if err != nil {
		return err
	}
	rspAddress, rspQuantity, err := ParseWriteMultipleCoils(response)
	if err != nil {
		return err
	}
	if err = checkEcho("address", rspAddress, address); err != nil {
		return err
	}
	return checkEcho("quantity", rspQuantity, uint16(len(values)))
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x04)
//  Starting address      : 2 bytes
//  Quantity of registers : 2 bytes
// Response:
//  Function code         : 1 byte (0x04)
//  Byte count            : 1 byte
//  Input registers       : Nx2 bytes
func (sf *client) ReadInputRegistersBytes(ctx context.Context, slaveID byte, address, quantity uint16) ([]byte, error) {
	return sf.readRegisters(ctx, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

// ReadInputRegisters see ReadInputRegistersBytes
func (sf *client) ReadInputRegisters(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint16, error) {
	b, err := sf.ReadInputRegistersBytes(ctx, slaveID, address, quantity)
	if err != nil {
		return nil, err
	}
	return BytesToRegisters(b)
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x03)
//  Starting address      : 2 bytes
//  Quantity of registers : 2 bytes
// Response:
//  Function code         : 1 byte (0x03)
//  Byte count            : 1 byte
//  Register value        : Nx2 bytes
func (sf *client) ReadHoldingRegistersBytes(ctx context.Context, slaveID byte, address, quantity uint16) ([]byte, error) {
	return sf.readRegisters(ctx, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

// ReadHoldingRegisters see ReadHoldingRegistersBytes
func (sf *client) ReadHoldingRegisters(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint16, error) {
	b, err := sf.ReadHoldingRegistersBytes(ctx, slaveID, address, quantity)
	if err != nil {
		return nil, err
	}
	return BytesToRegisters(b)
}

func (sf *client) readRegisters(ctx context.Context, funcCode byte, slaveID byte, address, quantity uint16) ([]byte, error) {
	var request ProtocolDataUnit
	var err error

	if funcCode == FuncCodeReadHoldingRegisters {
		request, err = EncodeReadHoldingRegisters(sf.address(address), quantity)
	} else {
		request, err = EncodeReadInputRegisters(sf.address(address), quantity)
	}
	if err != nil {
		return nil, err
	}
	response, err := sf.request(ctx, slaveID, request, false)
	if err != nil {
		return nil, err
	}
	payload, err := ParseRegistersPayload(response, funcCode)
	if err != nil {
		return nil, err
	}
	if len(payload) != int(quantity)*2 {
		return nil, fmt.Errorf("modbus: response byte size '%v' does not match quantity to bytes '%v': %w",
			len(payload), int(quantity)*2, ErrInvalidResponse)
	}
	return payload, nil
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x06)
//  Register address      : 2 bytes
//  Register value        : 2 bytes
// Response:
//  Function code         : 1 byte (0x06)
//  Register address      : 2 bytes
//  Register value        : 2 bytes
func (sf *client) WriteSingleRegister(ctx context.Context, slaveID byte, address, value uint16) error {
	address = sf.address(address)
	response, err := sf.request(ctx, slaveID, EncodeWriteSingleRegister(address, value), true)
	if err != nil {
		return err
	}
	rspAddress, rspValue, err := ParseWriteSingleRegister(response)
	if err != nil {
		return err
	}
	if err = checkEcho("address", rspAddress, address); err != nil {
		return err
	}
	return checkEcho("value", rspValue, value)
}

// Request:
//  Slave Id              : 1 byte
//  Function code         : 1 byte (0x10)
//  Starting address      : 2 bytes
//  Quantity of outputs   : 2 bytes
//  Byte count            : 1 byte
//  Registers value       : N* bytes
// Response:
//  Function code         : 1 byte (0x10)
//  Starting address      : 2 bytes
//  Quantity of registers : 2 bytes
func (sf *client) WriteMultipleRegistersBytes(ctx context.Context, slaveID byte, address uint16, value []byte) error {
	address = sf.address(address)
	request, err := EncodeWriteMultipleRegistersBytes(address, value)
	if err != nil {
		return err
	}
	response, err := sf.request(ctx, slaveID, request, true)
	if err != nil {
		return err
	}
	rspAddress, rspQuantity, err := ParseWriteMultipleRegisters(response)
	if err != nil {
		return err
	}
	if err = checkEcho("address", rspAddress, address); err != nil {
		return err
	}
	return checkEcho("quantity", rspQuantity, uint16(len(value)/2))
}

// WriteMultipleRegisters see WriteMultipleRegistersBytes
func (sf *client) WriteMultipleRegisters(ctx context.Context, slaveID byte, address uint16, values []uint16) error {
	if len(values) > WriteRegQuantityMax {
		return fmt.Errorf("modbus: quantity '%v' must be between '%v' and '%v': %w",
			len(values), WriteRegQuantityMin, WriteRegQuantityMax, ErrOutOfRange)
	}
	return sf.WriteMultipleRegistersBytes(ctx, slaveID, address, RegistersToBytes(values))
}

func checkEcho(field string, got, want uint16) error {
	if got != want {
		return fmt.Errorf("modbus: response %s '%v' does not match request '%v': %w",
			field, got, want, ErrInvalidResponse)
	}
	return nil
}
