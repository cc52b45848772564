package modbus

import (
	"context"
	"fmt"
)

func readTyped[T Numeric](ctx context.Context, c *client, funcCode byte, slaveID byte, address, quantity uint16) ([]T, error) {
	if width := widthOf[T](); int(quantity)*2%width != 0 {
		return nil, fmt.Errorf("modbus: quantity '%v' registers is not a multiple of '%v' bytes: %w",
			quantity, width, ErrLengthMismatch)
	}
	b, err := c.readRegisters(ctx, funcCode, slaveID, address, quantity)
	if err != nil {
		return nil, err
	}
	return ToValues[T](b, c.ByteOrder())
}

func writeTyped[T Numeric](ctx context.Context, c *client, slaveID byte, address uint16, values []T) error {
	b, err := FromValuesBytes(values, c.ByteOrder())
	if err != nil {
		return err
	}
	return c.WriteMultipleRegistersBytes(ctx, slaveID, address, b)
}

func (sf *client) ReadHoldingRegistersInt16(ctx context.Context, slaveID byte, address, quantity uint16) ([]int16, error) {
	return readTyped[int16](ctx, sf, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

func (sf *client) ReadHoldingRegistersUint32(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint32, error) {
	return readTyped[uint32](ctx, sf, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

func (sf *client) ReadHoldingRegistersInt32(ctx context.Context, slaveID byte, address, quantity uint16) ([]int32, error) {
	return readTyped[int32](ctx, sf, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

func (sf *client) ReadHoldingRegistersFloat32(ctx context.Context, slaveID byte, address, quantity uint16) ([]float32, error) {
	return readTyped[float32](ctx, sf, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

func (sf *client) ReadHoldingRegistersFloat64(ctx context.Context, slaveID byte, address, quantity uint16) ([]float64, error) {
	return readTyped[float64](ctx, sf, FuncCodeReadHoldingRegisters, slaveID, address, quantity)
}

func (sf *client) ReadInputRegistersInt16(ctx context.Context, slaveID byte, address, quantity uint16) ([]int16, error) {
	return readTyped[int16](ctx, sf, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

func (sf *client) ReadInputRegistersUint32(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint32, error) {
	return readTyped[uint32](ctx, sf, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

func (sf *client) ReadInputRegistersInt32(ctx context.Context, slaveID byte, address, quantity uint16) ([]int32, error) {
	return readTyped[int32](ctx, sf, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

func (sf *client) ReadInputRegistersFloat32(ctx context.Context, slaveID byte, address, quantity uint16) ([]float32, error) {
	return readTyped[float32](ctx, sf, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

func (sf *client) ReadInputRegistersFloat64(ctx context.Context, slaveID byte, address, quantity uint16) ([]float64, error) {
	return readTyped[float64](ctx, sf, FuncCodeReadInputRegisters, slaveID, address, quantity)
}

func (sf *client) WriteMultipleRegistersInt16(ctx context.Context, slaveID byte, address uint16, values []int16) error {
	return writeTyped(ctx, sf, slaveID, address, values)
}

func (sf *client) WriteMultipleRegistersUint32(ctx context.Context, slaveID byte, address uint16, values []uint32) error {
	return writeTyped(ctx, sf, slaveID, address, values)
}

func (sf *client) WriteMultipleRegistersInt32(ctx context.Context, slaveID byte, address uint16, values []int32) error {
	return writeTyped(ctx, sf, slaveID, address, values)
}

func (sf *client) WriteMultipleRegistersFloat32(ctx context.Context, slaveID byte, address uint16, values []float32) error {
	return writeTyped(ctx, sf, slaveID, address, values)
}

func (sf *client) WriteMultipleRegistersFloat64(ctx context.Context, slaveID byte, address uint16, values []float64) error {
	return writeTyped(ctx, sf, slaveID, address, values)
}
