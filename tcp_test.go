package modbus

import (
	"errors"
	"reflect"
	"testing"
)

func TestTCPFramer_Encode(t *testing.T) {
	type args struct {
		slaveID byte
		pdu     ProtocolDataUnit
	}
	tests := []struct {
		name    string
		args    args
		want    []byte
		wantErr error
	}{
		{
			"TCP encode",
			args{0, ProtocolDataUnit{1, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}}},
			[]byte{0, 1, 0, 0, 0, 11, 0, 1, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			nil,
		},
		{
			"read holding registers",
			args{1, ProtocolDataUnit{0x03, []byte{0x00, 0x00, 0x00, 0x0A}}},
			[]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03, 0x00, 0x00, 0x00, 0x0A},
			nil,
		},
		{
			"pdu too big",
			args{1, ProtocolDataUnit{0x10, make([]byte, pduMaxSize)}},
			nil,
			ErrPDUSize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTCPFramer().Encode(tt.args.slaveID, tt.args.pdu)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TCPFramer.Encode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TCPFramer.Encode() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestTCPFramer_transactionID(t *testing.T) {
	framer := NewTCPFramer()
	for want := uint16(1); want <= 3; want++ {
		adu, err := framer.Encode(1, ProtocolDataUnit{0x03, []byte{0, 0, 0, 1}})
		if err != nil {
			t.Fatalf("TCPFramer.Encode() error = %v", err)
		}
		if got := decodeMbapHeader(adu).transactionID; got != want {
			t.Errorf("transaction id = %v, want %v", got, want)
		}
	}

	// wraps around
	framer.transactionID = 0xFFFF
	adu, _ := framer.Encode(1, ProtocolDataUnit{0x03, []byte{0, 0, 0, 1}})
	if got := decodeMbapHeader(adu).transactionID; got != 0 {
		t.Errorf("transaction id = %v, want %v", got, 0)
	}
}

func TestTCPFramer_Scan(t *testing.T) {
	response := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x07, 0x01, 0x03, 0x04, 0x00, 0x0A, 0x01, 0x02}
	tests := []struct {
		name    string
		buf     []byte
		state   FrameState
		advance int
		pdu     ProtocolDataUnit
		wantErr error
	}{
		{"complete", response, FrameComplete, len(response),
			ProtocolDataUnit{0x03, []byte{0x04, 0x00, 0x0A, 0x01, 0x02}}, nil},
		{"trailing bytes", append(append([]byte{}, response...), 0x00, 0x02), FrameComplete, len(response),
			ProtocolDataUnit{0x03, []byte{0x04, 0x00, 0x0A, 0x01, 0x02}}, nil},
		{"header only", response[:6], FrameIncomplete, 0, ProtocolDataUnit{}, nil},
		{"body missing", response[:10], FrameIncomplete, 0, ProtocolDataUnit{}, nil},
		{"other transaction", []byte{0x00, 0x09, 0x00, 0x00, 0x00, 0x03, 0x01, 0x83, 0x02}, FrameAddressMismatch, 9,
			ProtocolDataUnit{}, nil},
		{"unit id not checked", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x03, 0x07, 0x83, 0x02}, FrameComplete, 9,
			ProtocolDataUnit{0x83, []byte{0x02}}, nil},
		{"protocol id", []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x03, 0x01, 0x83, 0x02}, FrameMalformed, 0,
			ProtocolDataUnit{}, ErrProtocolID},
		{"length too small", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x01, 0x83}, FrameMalformed, 0,
			ProtocolDataUnit{}, ErrInvalidLength},
		{"length too big", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0xFF, 0x01, 0x83}, FrameMalformed, 0,
			ProtocolDataUnit{}, ErrInvalidLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framer := NewTCPFramer()
			if _, err := framer.Encode(1, ProtocolDataUnit{0x03, []byte{0x00, 0x00, 0x00, 0x02}}); err != nil {
				t.Fatalf("TCPFramer.Encode() error = %v", err)
			}
			state, advance, pdu, err := framer.Scan(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TCPFramer.Scan() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if state != tt.state || advance != tt.advance {
				t.Errorf("TCPFramer.Scan() = %v %v, want %v %v", state, advance, tt.state, tt.advance)
			}
			if !reflect.DeepEqual(pdu, tt.pdu) {
				t.Errorf("TCPFramer.Scan() pdu = %v, want %v", pdu, tt.pdu)
			}
		})
	}
}

func Test_decodeMbapHeader(t *testing.T) {
	got := decodeMbapHeader([]byte{0, 0, 0, 0, 0, 11, 0, 1, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if want := (protocolTCPHeader{0, 0, 11, 0}); got != want {
		t.Errorf("decodeMbapHeader() = %v, want %v", got, want)
	}
}

func BenchmarkTCPFramer_Encode(b *testing.B) {
	framer := NewTCPFramer()
	pdu := ProtocolDataUnit{1, []byte{2, 3, 4, 5, 6, 7, 8, 9}}
	for i := 0; i < b.N; i++ {
		_, _ = framer.Encode(1, pdu)
	}
}
