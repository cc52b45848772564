package modbus

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// TCPDefaultTimeout TCP Default dial timeout
	TCPDefaultTimeout = 1 * time.Second
)

// Transport is the duplex byte channel under a provider.
// Read is only called by the provider's receive loop and may return any
// number of bytes, timeouts reported by Read are retried.
type Transport interface {
	io.ReadWriter
	// Connect opens the channel
	Connect(ctx context.Context) error
	// IsConnected returns a bool signifying whether the channel is open
	IsConnected() bool
	// Close the channel, a pending Read returns with an error
	Close() error
}

// tcpTransport a Transport over a tcp connection.
type tcpTransport struct {
	Address string
	// Connect timeout
	Timeout time.Duration
	mu      sync.Mutex
	conn    net.Conn
}

var _ Transport = (*tcpTransport)(nil)

func newTCPTransport(address string) *tcpTransport {
	return &tcpTransport{
		Address: address,
		Timeout: TCPDefaultTimeout,
	}
}

// Connect establishes a new connection to the address in Address.
func (sf *tcpTransport) Connect(ctx context.Context) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.conn != nil {
		return nil
	}
	dialer := &net.Dialer{Timeout: sf.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", sf.Address)
	if err != nil {
		return err
	}
	sf.conn = conn
	return nil
}

// IsConnected returns a bool signifying whether
// the client is connected or not.
func (sf *tcpTransport) IsConnected() bool {
	sf.mu.Lock()
	b := sf.conn != nil
	sf.mu.Unlock()
	return b
}

func (sf *tcpTransport) current() (net.Conn, error) {
	sf.mu.Lock()
	conn := sf.conn
	sf.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}
	return conn, nil
}

func (sf *tcpTransport) Read(b []byte) (int, error) {
	conn, err := sf.current()
	if err != nil {
		return 0, err
	}
	return conn.Read(b)
}

func (sf *tcpTransport) Write(b []byte) (int, error) {
	conn, err := sf.current()
	if err != nil {
		return 0, err
	}
	return conn.Write(b)
}

// Close closes current connection.
func (sf *tcpTransport) Close() error {
	var err error
	sf.mu.Lock()
	if sf.conn != nil {
		err = sf.conn.Close()
		sf.conn = nil
	}
	sf.mu.Unlock()
	return err
}

// connTransport a Transport over an already established connection,
// such as one end of net.Pipe or an accepted socket.
type connTransport struct {
	conn   net.Conn
	mu     sync.Mutex
	closed bool
}

// NewConnTransport wraps an established connection, Connect is a no-op.
func NewConnTransport(conn net.Conn) Transport {
	return &connTransport{conn: conn}
}

func (sf *connTransport) Connect(context.Context) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.closed {
		return ErrClosedConnection
	}
	return nil
}

func (sf *connTransport) IsConnected() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return !sf.closed
}

func (sf *connTransport) Read(b []byte) (int, error)  { return sf.conn.Read(b) }
func (sf *connTransport) Write(b []byte) (int, error) { return sf.conn.Write(b) }

func (sf *connTransport) Close() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.closed {
		return nil
	}
	sf.closed = true
	return sf.conn.Close()
}

// isTimeout reports read timeouts the receive loop retries.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return isSerialTimeout(err)
}
