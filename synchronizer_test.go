package modbus

import (
	"errors"
	"reflect"
	"testing"
)

var readRegistersRequest = ProtocolDataUnit{0x03, []byte{0x00, 0x00, 0x00, 0x02}}

func newArmedSynchronizer(t *testing.T, framer Framer, slaveID byte) *Synchronizer {
	t.Helper()
	if _, err := framer.Encode(slaveID, readRegistersRequest); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return NewSynchronizer(framer)
}

func TestSynchronizer_Next(t *testing.T) {
	want := ProtocolDataUnit{0x03, []byte{0x04, 0x00, 0x0A, 0x01, 0x02}}
	tcpRsp := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x07, 0x01, 0x03, 0x04, 0x00, 0x0A, 0x01, 0x02}
	rtuRsp := withCRC(CRC16Even, 0x01, 0x03, 0x04, 0x00, 0x0A, 0x01, 0x02)
	asciiRsp := []byte(":010304000A0102EB\r\n")

	tests := []struct {
		name   string
		framer Framer
		chunks [][]byte
	}{
		{"tcp split header", NewTCPFramer(), [][]byte{tcpRsp[:3], tcpRsp[3:]}},
		{"tcp byte by byte", NewTCPFramer(), splitEvery(tcpRsp, 1)},
		{"tcp other transaction first", NewTCPFramer(), [][]byte{
			{0x00, 0x09, 0x00, 0x00, 0x00, 0x03, 0x01, 0x83, 0x02}, tcpRsp,
		}},
		{"rtu in one chunk", NewRTUFramer(CRC16Even), [][]byte{rtuRsp}},
		{"rtu leading noise", NewRTUFramer(CRC16Even), [][]byte{{0x00, 0xFF, 0x13, 0x37, 0x42}, rtuRsp}},
		{"rtu corrupted frame first", NewRTUFramer(CRC16Even), [][]byte{
			{0x07, 0x03, 0x04, 0x00}, rtuRsp[:4], rtuRsp[4:],
		}},
		{"rtu byte by byte", NewRTUFramer(CRC16Even), splitEvery(rtuRsp, 1)},
		{"ascii leading noise", NewASCIIFramer(), [][]byte{[]byte("\x00\xFFnoise"), asciiRsp}},
		{"ascii truncated line first", NewASCIIFramer(), [][]byte{[]byte(":0103"), asciiRsp[:7], asciiRsp[7:]}},
		{"ascii other slave first", NewASCIIFramer(), [][]byte{[]byte(":020304000A0102EA\r\n"), asciiRsp}},
		{"ascii lrc failure first", NewASCIIFramer(), [][]byte{[]byte(":010304000A0102EC\r\n"), asciiRsp}},
		{"ascii byte by byte", NewASCIIFramer(), splitEvery(asciiRsp, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := newArmedSynchronizer(t, tt.framer, 1)
			for i, chunk := range tt.chunks {
				syncer.Feed(chunk)
				pdu, ok, err := syncer.Next()
				if err != nil {
					t.Fatalf("Synchronizer.Next() error = %v", err)
				}
				last := i == len(tt.chunks)-1
				if ok != last {
					t.Fatalf("Synchronizer.Next() chunk %d ok = %v, want %v", i, ok, last)
				}
				if ok && !reflect.DeepEqual(pdu, want) {
					t.Errorf("Synchronizer.Next() = %v, want %v", pdu, want)
				}
			}
			if n := syncer.Buffered(); n != 0 {
				t.Errorf("Synchronizer.Buffered() = %v, want 0", n)
			}
		})
	}
}

func TestSynchronizer_fatal(t *testing.T) {
	syncer := newArmedSynchronizer(t, NewTCPFramer(), 1)
	syncer.Feed([]byte{0x00, 0x01, 0x12, 0x34, 0x00, 0x07, 0x01})
	if _, ok, err := syncer.Next(); ok || !errors.Is(err, ErrProtocolID) {
		t.Errorf("Synchronizer.Next() = %v, %v, want %v", ok, err, ErrProtocolID)
	}
	if n := syncer.Buffered(); n != 7 {
		t.Errorf("Synchronizer.Buffered() = %v, want 7", n)
	}
	syncer.Reset()
	if n := syncer.Buffered(); n != 0 {
		t.Errorf("Synchronizer.Buffered() = %v, want 0", n)
	}
}

func TestSynchronizer_keepsTail(t *testing.T) {
	syncer := newArmedSynchronizer(t, NewRTUFramer(CRC16Even), 1)
	rsp := withCRC(CRC16Even, 0x01, 0x06, 0x00, 0x01, 0x00, 0x03)
	syncer.Feed(append(append([]byte{}, rsp...), 0x01, 0x06))
	if _, ok, _ := syncer.Next(); !ok {
		t.Fatalf("Synchronizer.Next() ok = false, want true")
	}
	if n := syncer.Buffered(); n != 2 {
		t.Errorf("Synchronizer.Buffered() = %v, want 2", n)
	}
	// compacts before appending
	syncer.Feed([]byte{0x00})
	if n := syncer.Buffered(); n != 3 {
		t.Errorf("Synchronizer.Buffered() = %v, want 3", n)
	}
}

func TestFrameState_String(t *testing.T) {
	if got := FrameChecksumMismatch.String(); got != "checksum mismatch" {
		t.Errorf("FrameState.String() = %v", got)
	}
	if got := FrameState(42).String(); got != "FrameState(42)" {
		t.Errorf("FrameState.String() = %v", got)
	}
}

func splitEvery(b []byte, n int) [][]byte {
	var chunks [][]byte
	for len(b) > n {
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	return append(chunks, b)
}
