package modbus

import (
	"context"
)

// Client interface.
type Client interface {
	ClientProvider
	// ByteOrder returns the byte order of the typed register methods.
	ByteOrder() ByteOrder
	// SetByteOrder change the byte order of the typed register methods,
	// safe to call at any time.
	SetByteOrder(order ByteOrder)

	// Bits

	// ReadCoils reads from 1 to 2000 contiguous status of coils in a
	// remote device and returns coil status.
	ReadCoils(ctx context.Context, slaveID byte, address, quantity uint16) (results []bool, err error)
	// ReadDiscreteInputs reads from 1 to 2000 contiguous status of
	// discrete inputs in a remote device and returns input status.
	ReadDiscreteInputs(ctx context.Context, slaveID byte, address, quantity uint16) (results []bool, err error)

	// WriteSingleCoil write a single output to either ON or OFF in a
	// remote device and returns success or failed.
	WriteSingleCoil(ctx context.Context, slaveID byte, address uint16, isOn bool) error
	// WriteMultipleCoils forces each coil in a sequence of coils to either
	// ON or OFF in a remote device and returns success or failed.
	WriteMultipleCoils(ctx context.Context, slaveID byte, address uint16, values []bool) error

	// 16-bits

	// ReadInputRegistersBytes reads from 1 to 125 contiguous input registers in
	// a remote device and returns the register bytes as on the wire.
	ReadInputRegistersBytes(ctx context.Context, slaveID byte, address, quantity uint16) (results []byte, err error)
	// ReadInputRegisters reads from 1 to 125 contiguous input registers in
	// a remote device and returns input registers.
	ReadInputRegisters(ctx context.Context, slaveID byte, address, quantity uint16) (results []uint16, err error)

	// ReadHoldingRegistersBytes reads the contents of a contiguous block of
	// holding registers in a remote device and returns the register bytes as on the wire.
	ReadHoldingRegistersBytes(ctx context.Context, slaveID byte, address, quantity uint16) (results []byte, err error)
	// ReadHoldingRegisters reads the contents of a contiguous block of
	// holding registers in a remote device and returns register value.
	ReadHoldingRegisters(ctx context.Context, slaveID byte, address, quantity uint16) (results []uint16, err error)

	// WriteSingleRegister writes a single holding register in a remote
	// device and returns success or failed.
	WriteSingleRegister(ctx context.Context, slaveID byte, address, value uint16) error
	// WriteMultipleRegistersBytes writes a block of contiguous registers
	// (1 to 123 registers) in a remote device, value length must be even.
	WriteMultipleRegistersBytes(ctx context.Context, slaveID byte, address uint16, value []byte) error
	// WriteMultipleRegisters writes a block of contiguous registers
	// (1 to 123 registers) in a remote device and returns success or failed.
	WriteMultipleRegisters(ctx context.Context, slaveID byte, address uint16, values []uint16) error

	// typed registers, quantity is a number of registers and must cover a
	// whole number of values, values use the client byte order.

	ReadHoldingRegistersInt16(ctx context.Context, slaveID byte, address, quantity uint16) ([]int16, error)
	ReadHoldingRegistersUint32(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint32, error)
	ReadHoldingRegistersInt32(ctx context.Context, slaveID byte, address, quantity uint16) ([]int32, error)
	ReadHoldingRegistersFloat32(ctx context.Context, slaveID byte, address, quantity uint16) ([]float32, error)
	ReadHoldingRegistersFloat64(ctx context.Context, slaveID byte, address, quantity uint16) ([]float64, error)

	ReadInputRegistersInt16(ctx context.Context, slaveID byte, address, quantity uint16) ([]int16, error)
	ReadInputRegistersUint32(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint32, error)
	ReadInputRegistersInt32(ctx context.Context, slaveID byte, address, quantity uint16) ([]int32, error)
	ReadInputRegistersFloat32(ctx context.Context, slaveID byte, address, quantity uint16) ([]float32, error)
	ReadInputRegistersFloat64(ctx context.Context, slaveID byte, address, quantity uint16) ([]float64, error)

	WriteMultipleRegistersInt16(ctx context.Context, slaveID byte, address uint16, values []int16) error
	WriteMultipleRegistersUint32(ctx context.Context, slaveID byte, address uint16, values []uint32) error
	WriteMultipleRegistersInt32(ctx context.Context, slaveID byte, address uint16, values []int32) error
	WriteMultipleRegistersFloat32(ctx context.Context, slaveID byte, address uint16, values []float32) error
	WriteMultipleRegistersFloat64(ctx context.Context, slaveID byte, address uint16, values []float64) error
}
