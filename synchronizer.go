package modbus

// Synchronizer assembles response frames from an arbitrarily chunked byte
// stream. Candidates rejected by the Framer are dropped from the window and
// scanning resumes on what is left.
type Synchronizer struct {
	framer Framer
	window []byte
	head   int // start of unconsumed bytes in window
	logs   *clogs
}

// NewSynchronizer new synchronizer on framer.
func NewSynchronizer(framer Framer) *Synchronizer {
	return &Synchronizer{
		framer: framer,
		window: make([]byte, 0, rtuAduMaxSize),
	}
}

// Feed appends a chunk read from the transport.
func (sf *Synchronizer) Feed(chunk []byte) {
	if sf.head > 0 {
		n := copy(sf.window, sf.window[sf.head:])
		sf.window = sf.window[:n]
		sf.head = 0
	}
	sf.window = append(sf.window, chunk...)
}

// Buffered returns the number of bytes waiting in the window.
func (sf *Synchronizer) Buffered() int {
	return len(sf.window) - sf.head
}

// Reset drops every buffered byte.
func (sf *Synchronizer) Reset() {
	sf.window = sf.window[:0]
	sf.head = 0
}

// Next returns the pdu of the first complete frame in the window, or false
// when more bytes are needed. An error means the framer can not
// resynchronize the stream, the window is left untouched in that case.
func (sf *Synchronizer) Next() (ProtocolDataUnit, bool, error) {
	for {
		buf := sf.window[sf.head:]
		if len(buf) == 0 {
			return ProtocolDataUnit{}, false, nil
		}
		state, advance, pdu, err := sf.framer.Scan(buf)
		if err != nil {
			return ProtocolDataUnit{}, false, err
		}
		switch state {
		case FrameIncomplete:
			return ProtocolDataUnit{}, false, nil
		case FrameComplete:
			sf.head += advance
			return pdu, true, nil
		}
		if advance <= 0 {
			advance = 1
		}
		if advance > len(buf) {
			advance = len(buf)
		}
		if sf.logs != nil {
			sf.logs.Debugf("modbus: drop %d bytes, %v: [% x]", advance, state, buf[:advance])
		}
		sf.head += advance
	}
}
