package modbus

import (
	"testing"

	sgcrc "github.com/sigurn/crc16"
)

func Test_crc16(t *testing.T) {
	type args struct {
		bs []byte
	}
	tests := []struct {
		name string
		args args
		want uint16
	}{
		{"crc16 ", args{[]byte{0x01, 0x02, 0x03, 0x04, 0x05}}, 0xbb2a},
		{"read holding registers", args{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}}, 0xCDC5},
		{"empty", args{[]byte{}}, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crc16(tt.args.bs); got != tt.want {
				t.Errorf("crc16() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestCRC16_modbusTable(t *testing.T) {
	table := sgcrc.MakeTable(sgcrc.CRC16_MODBUS)
	data := make([]byte, 0, 256)
	for i := 0; i < 256; i++ {
		data = append(data, byte(i*7+3))
		if got, want := CRC16(data, CRC16Even), sgcrc.Checksum(data, table); got != want {
			t.Fatalf("CRC16(% x) = %#04x, want %#04x", data, got, want)
		}
	}
}

func TestCRC16(t *testing.T) {
	data := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	tests := []struct {
		name    string
		variant CRC16Variant
		want    uint16
	}{
		{"even", CRC16Even, 0xCDC5},
		{"odd", CRC16Odd, 0xCDC5 ^ 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(data, tt.variant); got != tt.want {
				t.Errorf("CRC16() = %#04x, want %#04x", got, tt.want)
			}
			if got := tt.variant.String(); got != tt.name {
				t.Errorf("CRC16Variant.String() = %v, want %v", got, tt.name)
			}
		})
	}
}

func TestVerifyCRC16(t *testing.T) {
	type args struct {
		frame   []byte
		variant CRC16Variant
	}
	tests := []struct {
		name string
		args args
		want bool
	}{
		{"even", args{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}, CRC16Even}, true},
		{"odd", args{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0x3A, 0x32}, CRC16Odd}, true},
		{"wrong variant", args{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}, CRC16Odd}, false},
		{"byte order", args{[]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xCD, 0xC5}, CRC16Even}, false},
		{"corrupted", args{[]byte{0x01, 0x03, 0x00, 0x01, 0x00, 0x0A, 0xC5, 0xCD}, CRC16Even}, false},
		{"too short", args{[]byte{0xFF, 0xFF}, CRC16Even}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyCRC16(tt.args.frame, tt.args.variant); got != tt.want {
				t.Errorf("VerifyCRC16() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Benchmark_crc16(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = crc16([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	}
}
