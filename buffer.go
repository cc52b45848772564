package modbus

import (
	"sync"
)

// pool of receive buffers, each with a fixed capacity.
type pool struct {
	pl   *sync.Pool
	size int
}

func newPool(size int) *pool {
	return &pool{
		pl: &sync.Pool{
			New: func() interface{} {
				return &protocolFrame{make([]byte, 0, size)}
			},
		},
		size: size,
	}
}

// get returns an empty frame.
func (sf *pool) get() *protocolFrame {
	v := sf.pl.Get().(*protocolFrame)
	v.adu = v.adu[:0]
	return v
}

// put gives back frame, frames from another pool are dropped.
func (sf *pool) put(frame *protocolFrame) {
	if cap(frame.adu) == sf.size {
		sf.pl.Put(frame)
	}
}

// receive pools shared by every provider of the same transport kind.
var (
	tcpPool    = newPool(tcpAduMaxSize)
	serialPool = newPool(asciiCharacterMaxSize)
)
