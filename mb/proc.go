package mb

// Handler 处理函数
type Handler interface {
	ProcReadCoils(slaveID byte, address, quantity uint16, values []bool)
	ProcReadDiscretes(slaveID byte, address, quantity uint16, values []bool)
	ProcReadHoldingRegisters(slaveID byte, address, quantity uint16, valBuf []byte)
	ProcReadInputRegisters(slaveID byte, address, quantity uint16, valBuf []byte)
	ProcResult(err error, result *Result)
}

// NopProc implement interface Handler
type NopProc struct{}

// ProcReadCoils implement interface Handler
func (NopProc) ProcReadCoils(byte, uint16, uint16, []bool) {}

// ProcReadDiscretes implement interface Handler
func (NopProc) ProcReadDiscretes(byte, uint16, uint16, []bool) {}

// ProcReadHoldingRegisters implement interface Handler
func (NopProc) ProcReadHoldingRegisters(byte, uint16, uint16, []byte) {}

// ProcReadInputRegisters implement interface Handler
func (NopProc) ProcReadInputRegisters(byte, uint16, uint16, []byte) {}

// ProcResult implement interface Handler
func (NopProc) ProcResult(error, *Result) {}
