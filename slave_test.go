package modbus

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"
)

const (
	funcReadMinSize       = 4 // 读操作 最小数据域个数
	funcWriteMinSize      = 4 // 写操作 最小数据域个数
	funcWriteMultiMinSize = 5 // 写多个操作 最小数据域个数
)

type slaveMode int

const (
	slaveTCP slaveMode = iota
	slaveRTU
	slaveASCII
)

// testSlave 内存中的从站, 线圈/离散量/输入/保持寄存器均从地址0开始
type testSlave struct {
	rw       sync.RWMutex
	slaveID  byte
	variant  CRC16Variant // rtu crc variant
	coils    []bool
	discrete []bool
	input    []uint16
	holding  []uint16
	// hook 可改写应答adu, 返回的每个切片单独写出, 返回nil不应答
	hook func(adu []byte) [][]byte
}

func newTestSlave(slaveID byte, size int) *testSlave {
	return &testSlave{
		slaveID:  slaveID,
		coils:    make([]bool, size),
		discrete: make([]bool, size),
		input:    make([]uint16, size),
		holding:  make([]uint16, size),
	}
}

func (sf *testSlave) setHook(hook func(adu []byte) [][]byte) {
	sf.rw.Lock()
	sf.hook = hook
	sf.rw.Unlock()
}

func illegalAddress() error { return &ExceptionError{ExceptionCode: ExceptionCodeIllegalDataAddress} }
func illegalValue() error   { return &ExceptionError{ExceptionCode: ExceptionCodeIllegalDataValue} }

func inRange(address, quantity uint16, size int) bool {
	return int(address)+int(quantity) <= size
}

// handle 处理一个请求pdu, 错误转成异常应答
func (sf *testSlave) handle(request ProtocolDataUnit) ProtocolDataUnit {
	data, err := sf.dispatch(request.FuncCode, request.Data)
	if err != nil {
		code := ExceptionCodeServerDeviceFailure
		var e *ExceptionError
		if errors.As(err, &e) {
			code = e.ExceptionCode
		}
		return ProtocolDataUnit{request.FuncCode | funcCodeExceptionFlag, []byte{byte(code)}}
	}
	return ProtocolDataUnit{request.FuncCode, data}
}

func (sf *testSlave) dispatch(funcCode byte, data []byte) ([]byte, error) {
	switch funcCode {
	case FuncCodeReadCoils:
		return sf.readBits(data, sf.coils)
	case FuncCodeReadDiscreteInputs:
		return sf.readBits(data, sf.discrete)
	case FuncCodeReadHoldingRegisters:
		return sf.readRegisters(data, sf.holding)
	case FuncCodeReadInputRegisters:
		return sf.readRegisters(data, sf.input)
	case FuncCodeWriteSingleCoil:
		return sf.writeSingleCoil(data)
	case FuncCodeWriteMultipleCoils:
		return sf.writeMultiCoils(data)
	case FuncCodeWriteSingleRegister:
		return sf.writeSingleRegister(data)
	case FuncCodeWriteMultipleRegisters:
		return sf.writeMultiRegisters(data)
	}
	return nil, &ExceptionError{ExceptionCode: ExceptionCodeIllegalFunction}
}

func (sf *testSlave) readBits(data []byte, bits []bool) ([]byte, error) {
	if len(data) != funcReadMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	if quantity < ReadBitsQuantityMin || quantity > ReadBitsQuantityMax {
		return nil, illegalValue()
	}
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	if !inRange(address, quantity, len(bits)) {
		return nil, illegalAddress()
	}
	value := packBits(bits[address : address+quantity])
	return append([]byte{byte(len(value))}, value...), nil
}

func (sf *testSlave) readRegisters(data []byte, registers []uint16) ([]byte, error) {
	if len(data) != funcReadMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	if quantity < ReadRegQuantityMin || quantity > ReadRegQuantityMax {
		return nil, illegalValue()
	}
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	if !inRange(address, quantity, len(registers)) {
		return nil, illegalAddress()
	}
	return pduDataBlockSuffix(RegistersToBytes(registers[address:address+quantity])), nil
}

func (sf *testSlave) writeSingleCoil(data []byte) ([]byte, error) {
	if len(data) != funcWriteMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	newValue := binary.BigEndian.Uint16(data[2:])
	if !(newValue == 0xFF00 || newValue == 0x0000) {
		return nil, illegalValue()
	}
	sf.rw.Lock()
	defer sf.rw.Unlock()
	if !inRange(address, 1, len(sf.coils)) {
		return nil, illegalAddress()
	}
	sf.coils[address] = newValue == 0xFF00
	return data, nil
}

func (sf *testSlave) writeMultiCoils(data []byte) ([]byte, error) {
	if len(data) < funcWriteMultiMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	byteCnt := data[4]
	if quantity < WriteBitsQuantityMin || quantity > WriteBitsQuantityMax ||
		int(byteCnt) != (int(quantity)+7)/8 || len(data[5:]) != int(byteCnt) {
		return nil, illegalValue()
	}
	sf.rw.Lock()
	defer sf.rw.Unlock()
	if !inRange(address, quantity, len(sf.coils)) {
		return nil, illegalAddress()
	}
	copy(sf.coils[address:], unpackBits(data[5:], quantity))
	return data[:4], nil
}

func (sf *testSlave) writeSingleRegister(data []byte) ([]byte, error) {
	if len(data) != funcWriteMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	sf.rw.Lock()
	defer sf.rw.Unlock()
	if !inRange(address, 1, len(sf.holding)) {
		return nil, illegalAddress()
	}
	sf.holding[address] = binary.BigEndian.Uint16(data[2:])
	return data, nil
}

func (sf *testSlave) writeMultiRegisters(data []byte) ([]byte, error) {
	if len(data) < funcWriteMultiMinSize {
		return nil, illegalValue()
	}
	address := binary.BigEndian.Uint16(data)
	count := binary.BigEndian.Uint16(data[2:])
	byteCnt := data[4]
	if count < WriteRegQuantityMin || count > WriteRegQuantityMax ||
		int(byteCnt) != int(count)*2 || len(data[5:]) != int(byteCnt) {
		return nil, illegalValue()
	}
	sf.rw.Lock()
	defer sf.rw.Unlock()
	if !inRange(address, count, len(sf.holding)) {
		return nil, illegalAddress()
	}
	values, _ := BytesToRegisters(data[5:])
	copy(sf.holding[address:], values)
	return data[:4], nil
}

// serve 应答conn上的请求直到连接关闭, 每次Write都是一个完整的请求adu
func (sf *testSlave) serve(conn net.Conn, mode slaveMode) {
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		adu := sf.respond(append([]byte(nil), buf[:n]...), mode)
		if adu == nil {
			continue
		}
		chunks := [][]byte{adu}
		sf.rw.RLock()
		hook := sf.hook
		sf.rw.RUnlock()
		if hook != nil {
			chunks = hook(adu)
		}
		for _, chunk := range chunks {
			if _, err = conn.Write(chunk); err != nil {
				return
			}
		}
	}
}

// respond decodes a request adu and returns the response adu, nil when
// the request is broadcast, not addressed to this slave or undecodable.
func (sf *testSlave) respond(adu []byte, mode slaveMode) []byte {
	switch mode {
	case slaveTCP:
		if len(adu) < tcpHeaderMbapSize+1 {
			return nil
		}
		head := decodeMbapHeader(adu)
		if head.unitID != sf.slaveID {
			return nil
		}
		response := sf.handle(ProtocolDataUnit{adu[tcpHeaderMbapSize], adu[tcpHeaderMbapSize+1:]})
		return tcpResponse(head.transactionID, head.unitID, response)
	case slaveRTU:
		slaveID, request, err := DecodeRTUFrame(adu, sf.variant)
		if err != nil {
			return nil
		}
		return sf.respondSerial(slaveID, request, NewRTUFramer(sf.variant))
	default:
		slaveID, request, err := DecodeASCIIFrame(adu)
		if err != nil {
			return nil
		}
		return sf.respondSerial(slaveID, request, NewASCIIFramer())
	}
}

func (sf *testSlave) respondSerial(slaveID byte, request ProtocolDataUnit, framer Framer) []byte {
	switch slaveID {
	case AddressBroadCast:
		sf.handle(request)
		return nil
	case sf.slaveID:
		adu, _ := framer.Encode(slaveID, sf.handle(request))
		return adu
	}
	return nil
}

// tcpResponse builds the response adu of transaction tid.
func tcpResponse(tid uint16, unitID byte, pdu ProtocolDataUnit) []byte {
	adu := make([]byte, tcpHeaderMbapSize+1+len(pdu.Data))
	binary.BigEndian.PutUint16(adu, tid)
	binary.BigEndian.PutUint16(adu[4:], uint16(2+len(pdu.Data)))
	adu[6] = unitID
	adu[7] = pdu.FuncCode
	copy(adu[8:], pdu.Data)
	return adu
}
