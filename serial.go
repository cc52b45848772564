package modbus

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

const (
	// SerialDefaultTimeout Serial Default read timeout
	SerialDefaultTimeout = 1 * time.Second
	// SerialDefaultInterFrameDelay Serial Default silence between frames
	SerialDefaultInterFrameDelay = 10 * time.Millisecond
)

// serialPort has configuration and I/O controller.
type serialPort struct {
	// Serial port configuration.
	serial.Config
	mu   sync.Mutex
	port io.ReadWriteCloser
}

var _ Transport = (*serialPort)(nil)

// newSerialPort it will use default /dev/ttyS0 19200 8 1 N and timeout 1000.
func newSerialPort() *serialPort {
	return &serialPort{
		Config: serial.Config{
			Address:  "/dev/ttyS0",
			BaudRate: 19200,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  SerialDefaultTimeout,
		},
	}
}

// Connect try to open the serial port
func (sf *serialPort) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.port != nil {
		return nil
	}
	port, err := serial.Open(&sf.Config)
	if err != nil {
		return err
	}
	sf.port = port
	return nil
}

// IsConnected returns a bool signifying whether the client is connected or not.
func (sf *serialPort) IsConnected() bool {
	sf.mu.Lock()
	b := sf.port != nil
	sf.mu.Unlock()
	return b
}

func (sf *serialPort) current() (io.ReadWriteCloser, error) {
	sf.mu.Lock()
	port := sf.port
	sf.mu.Unlock()
	if port == nil {
		return nil, ErrNotConnected
	}
	return port, nil
}

func (sf *serialPort) Read(b []byte) (int, error) {
	port, err := sf.current()
	if err != nil {
		return 0, err
	}
	return port.Read(b)
}

func (sf *serialPort) Write(b []byte) (int, error) {
	port, err := sf.current()
	if err != nil {
		return 0, err
	}
	return port.Write(b)
}

// Close close current connection.
func (sf *serialPort) Close() error {
	var err error
	sf.mu.Lock()
	if sf.port != nil {
		err = sf.port.Close()
		sf.port = nil
	}
	sf.mu.Unlock()
	return err
}

func isSerialTimeout(err error) bool {
	return errors.Is(err, serial.ErrTimeout)
}
