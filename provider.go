package modbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

const (
	// DefaultTimeout per request timeout, from send to complete response
	DefaultTimeout = 1 * time.Second
	// receiveQueueSize chunks buffered between the receive loop and a request
	receiveQueueSize = 16
)

// provider implements ClientProvider interface, it runs every request
// through one Framer over one Transport.
type provider struct {
	clogs
	transport Transport
	framer    Framer
	syncer    *Synchronizer
	pool      *pool

	// serial only
	serial          bool
	crcVariant      CRC16Variant
	crcVariantSet   bool
	interFrameDelay time.Duration
	lastActivity    time.Time

	timeout time.Duration
	// one request in flight
	gate chan struct{}

	mu  sync.Mutex
	rcv *receiver
}

var _ ClientProvider = (*provider)(nil)

// NewTCPClientProvider allocates a new tcp ClientProvider.
func NewTCPClientProvider(address string, opts ...ClientProviderOption) ClientProvider {
	p := newProvider(newTCPTransport(address), "modbusTCPMaster => ", tcpPool)
	for _, opt := range opts {
		opt(p)
	}
	p.setFramer(NewTCPFramer())
	return p
}

// NewRTUClientProvider allocates and initializes a rtu ClientProvider.
// it will use default /dev/ttyS0 19200 8 1 N and timeout 1000.
func NewRTUClientProvider(opts ...ClientProviderOption) ClientProvider {
	p := newProvider(newSerialPort(), "modbusRTUMaster => ", serialPool)
	p.serial = true
	for _, opt := range opts {
		opt(p)
	}
	p.setFramer(NewRTUFramer(p.crcVariant))
	return p
}

// NewASCIIClientProvider allocates and initializes a ascii ClientProvider.
// it will use default /dev/ttyS0 19200 8 1 N and timeout 1000.
func NewASCIIClientProvider(opts ...ClientProviderOption) ClientProvider {
	p := newProvider(newSerialPort(), "modbusASCIIMaster => ", serialPool)
	p.serial = true
	for _, opt := range opts {
		opt(p)
	}
	p.setFramer(NewASCIIFramer())
	return p
}

// NewClientProvider runs framer over a caller supplied transport.
func NewClientProvider(transport Transport, framer Framer, opts ...ClientProviderOption) ClientProvider {
	p := newProvider(transport, "modbusMaster => ", serialPool)
	_, isTCP := framer.(*TCPFramer)
	p.serial = !isTCP
	for _, opt := range opts {
		opt(p)
	}
	// an explicit crc variant option overrides the one the framer was built with
	if f, ok := framer.(*RTUFramer); ok && p.crcVariantSet {
		f.variant = p.crcVariant
	}
	p.setFramer(framer)
	return p
}

func newProvider(t Transport, prefix string, pl *pool) *provider {
	return &provider{
		clogs:           newClogWithPrefix(prefix),
		transport:       t,
		pool:            pl,
		interFrameDelay: SerialDefaultInterFrameDelay,
		timeout:         DefaultTimeout,
		gate:            make(chan struct{}, 1),
	}
}

func (sf *provider) setFramer(f Framer) {
	sf.framer = f
	sf.syncer = NewSynchronizer(f)
	sf.syncer.logs = &sf.clogs
}

// Connect opens the transport and starts receiving.
func (sf *provider) Connect(ctx context.Context) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.rcv != nil && sf.transport.IsConnected() {
		return nil
	}
	if err := sf.transport.Connect(ctx); err != nil {
		return err
	}
	sf.rcv = newReceiver()
	go sf.rcv.run(sf.transport, sf.pool, &sf.clogs)
	return nil
}

// IsConnected returns a bool signifying whether
// the client is connected or not.
func (sf *provider) IsConnected() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.rcv != nil && sf.transport.IsConnected()
}

// Close disconnect the remote server, no request may be in flight.
func (sf *provider) Close() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.rcv != nil {
		sf.rcv.stop()
		sf.rcv = nil
	}
	return sf.transport.Close()
}

func (sf *provider) currentReceiver() *receiver {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.rcv
}

// drop tears down a connection whose receive loop failed.
func (sf *provider) drop(rcv *receiver) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.rcv == rcv {
		sf.rcv.stop()
		sf.rcv = nil
		_ = sf.transport.Close()
	}
}

func (sf *provider) acquire(ctx context.Context) error {
	select {
	case sf.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (sf *provider) release() { <-sf.gate }

// Send request to the remote server and wait for the matching response.
// exception responses are returned as is, see the Parse functions.
func (sf *provider) Send(ctx context.Context, slaveID byte, request ProtocolDataUnit) (ProtocolDataUnit, error) {
	if err := sf.acquire(ctx); err != nil {
		return ProtocolDataUnit{}, err
	}
	defer sf.release()

	rcv := sf.currentReceiver()
	if rcv == nil {
		return ProtocolDataUnit{}, ErrNotConnected
	}
	aduRequest, err := sf.framer.Encode(slaveID, request)
	if err != nil {
		return ProtocolDataUnit{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, sf.timeout)
	defer cancel()

	sf.flush(rcv)
	if err = sf.waitSilence(ctx); err != nil {
		return ProtocolDataUnit{}, sf.ctxError(ctx)
	}
	sf.Debugf("modbus: sending [% x]", aduRequest)
	if _, err = sf.transport.Write(aduRequest); err != nil {
		sf.Errorf("modbus: write failed, %v", err)
		return ProtocolDataUnit{}, err
	}
	sf.lastActivity = time.Now()
	// no slave answers a serial broadcast
	if sf.serial && slaveID == AddressBroadCast {
		return request, nil
	}

	for {
		pdu, ok, err := sf.syncer.Next()
		if err != nil {
			sf.Errorf("modbus: %v", err)
			sf.syncer.Reset()
			return ProtocolDataUnit{}, err
		}
		if ok {
			sf.Debugf("modbus: received pdu [%x % x]", pdu.FuncCode, pdu.Data)
			return pdu, nil
		}

		select {
		case frame := <-rcv.chunks:
			sf.syncer.Feed(frame.adu)
			sf.pool.put(frame)
			sf.lastActivity = time.Now()
		case <-rcv.done:
			if pdu, ok := sf.drain(rcv); ok {
				return pdu, nil
			}
			err = rcv.err
			sf.Errorf("modbus: receive failed, %v", err)
			sf.drop(rcv)
			return ProtocolDataUnit{}, err
		case <-ctx.Done():
			return ProtocolDataUnit{}, sf.ctxError(ctx)
		}
	}
}

// drain feeds the chunks queued before the receive loop ended.
func (sf *provider) drain(rcv *receiver) (ProtocolDataUnit, bool) {
	for {
		select {
		case frame := <-rcv.chunks:
			sf.syncer.Feed(frame.adu)
			sf.pool.put(frame)
		default:
			pdu, ok, err := sf.syncer.Next()
			return pdu, ok && err == nil
		}
	}
}

// ctxError maps the request context end to the request outcome.
func (sf *provider) ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		sf.Debugf("modbus: request timeout after %v, %d bytes pending", sf.timeout, sf.syncer.Buffered())
		return fmt.Errorf("modbus: no response within '%v': %w", sf.timeout, ErrTimeout)
	}
	return ctx.Err()
}

// flush drops bytes left over by a previous exchange.
func (sf *provider) flush(rcv *receiver) {
	for {
		select {
		case frame := <-rcv.chunks:
			sf.Debugf("modbus: flush stale bytes [% x]", frame.adu)
			sf.pool.put(frame)
		default:
			if n := sf.syncer.Buffered(); n > 0 {
				sf.Debugf("modbus: flush %d stale bytes", n)
			}
			sf.syncer.Reset()
			return
		}
	}
}

// waitSilence keeps the serial line idle for t3.5 or the configured
// inter frame delay, whichever is longer, since the last activity.
func (sf *provider) waitSilence(ctx context.Context) error {
	if !sf.serial || sf.lastActivity.IsZero() {
		return nil
	}
	delay := sf.interFrameDelay
	if sp, ok := sf.transport.(*serialPort); ok {
		if t35 := calculateDelay(sp.BaudRate, 0); t35 > delay {
			delay = t35
		}
	}
	wait := time.Until(sf.lastActivity.Add(delay))
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendPdu send pdu request to the remote server
func (sf *provider) SendPdu(ctx context.Context, slaveID byte, pduRequest []byte) ([]byte, error) {
	if len(pduRequest) < pduMinSize || len(pduRequest) > pduMaxSize {
		return nil, fmt.Errorf("modbus: pdu size '%v' must be between '%v' and '%v': %w",
			len(pduRequest), pduMinSize, pduMaxSize, ErrPDUSize)
	}
	response, err := sf.Send(ctx, slaveID, ProtocolDataUnit{pduRequest[0], pduRequest[1:]})
	if err != nil {
		return nil, err
	}
	return response.Bytes(), nil
}

func (sf *provider) setSerialConfig(config serial.Config) {
	if sp, ok := sf.transport.(*serialPort); ok {
		sp.Config = config
	}
}

func (sf *provider) setTCPTimeout(t time.Duration) {
	if tp, ok := sf.transport.(*tcpTransport); ok {
		tp.Timeout = t
	}
}

func (sf *provider) setTimeout(t time.Duration) {
	if t > 0 {
		sf.timeout = t
	}
}

func (sf *provider) setCRC16Variant(v CRC16Variant) {
	sf.crcVariant = v
	sf.crcVariantSet = true
}

func (sf *provider) setInterFrameDelay(t time.Duration) {
	if t >= 0 {
		sf.interFrameDelay = t
	}
}

// receiver pumps transport reads into chunks until the transport fails.
type receiver struct {
	chunks chan *protocolFrame
	done   chan struct{} // closed when run returns, err is set before
	quit   chan struct{}
	once   sync.Once
	err    error
}

func newReceiver() *receiver {
	return &receiver{
		chunks: make(chan *protocolFrame, receiveQueueSize),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
}

func (sf *receiver) stop() {
	sf.once.Do(func() { close(sf.quit) })
}

func (sf *receiver) run(r io.Reader, pl *pool, logs *clogs) {
	defer close(sf.done)
	for {
		frame := pl.get()
		n, err := r.Read(frame.adu[:cap(frame.adu)])
		if n > 0 {
			frame.adu = frame.adu[:n]
			select {
			case sf.chunks <- frame:
			case <-sf.quit:
				sf.err = ErrClosedConnection
				return
			}
		} else {
			pl.put(frame)
		}
		if err == nil || isTimeout(err) {
			continue
		}
		select {
		case <-sf.quit:
			sf.err = ErrClosedConnection
		default:
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				sf.err = fmt.Errorf("modbus: connection closed while waiting for response: %w", ErrClosedConnection)
			} else {
				logs.Errorf("modbus: read failed, %v", err)
				sf.err = fmt.Errorf("modbus: %v: %w", err, ErrClosedConnection)
			}
		}
		return
	}
}
