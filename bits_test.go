package modbus

import (
	"reflect"
	"testing"
)

func Test_getBits(t *testing.T) {
	buf := []byte{0xCD, 0x01}
	type args struct {
		start, nBits uint16
	}
	tests := []struct {
		name string
		args args
		want uint8
	}{
		{"whole byte", args{0, 8}, 0xCD},
		{"span bytes", args{4, 8}, 0x1C},
		{"bit 0", args{0, 1}, 1},
		{"bit 1", args{1, 1}, 0},
		{"bit 8", args{8, 1}, 1},
		{"middle", args{2, 3}, 0x03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getBits(buf, tt.args.start, tt.args.nBits); got != tt.want {
				t.Errorf("getBits() = %#02x, want %#02x", got, tt.want)
			}
		})
	}
}

func Test_setBits(t *testing.T) {
	type args struct {
		buf          []byte
		start, nBits uint16
		value        byte
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{"whole byte", args{[]byte{0x00, 0x00}, 0, 8, 0xA5}, []byte{0xA5, 0x00}},
		{"span bytes", args{[]byte{0x00, 0x00}, 4, 8, 0xFF}, []byte{0xF0, 0x0F}},
		{"clear bit", args{[]byte{0xFF, 0xFF}, 9, 1, 0}, []byte{0xFF, 0xFD}},
		{"value masked", args{[]byte{0x00}, 0, 2, 0xFF}, []byte{0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBits(tt.args.buf, tt.args.start, tt.args.nBits, tt.args.value)
			if !reflect.DeepEqual(tt.args.buf, tt.want) {
				t.Errorf("setBits() = % x, want % x", tt.args.buf, tt.want)
			}
		})
	}
}

func Test_packBits(t *testing.T) {
	tests := []struct {
		name   string
		values []bool
		want   []byte
	}{
		{"empty", []bool{}, []byte{}},
		{"single", []bool{true}, []byte{0x01}},
		{"ten coils", []bool{true, false, true, true, false, false, true, true, true, false}, []byte{0xCD, 0x01}},
		{"eight coils", []bool{false, false, false, false, false, false, false, true}, []byte{0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := packBits(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("packBits() = % x, want % x", got, tt.want)
			}
			if back := unpackBits(got, uint16(len(tt.values))); !reflect.DeepEqual(back, tt.values) {
				t.Errorf("unpackBits() = %v, want %v", back, tt.values)
			}
		})
	}
}

func Test_unpackBits(t *testing.T) {
	got := unpackBits([]byte{0xCD, 0x01}, 10)
	want := []bool{true, false, true, true, false, false, true, true, true, false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unpackBits() = %v, want %v", got, want)
	}
	// padding bits past quantity are ignored
	if got = unpackBits([]byte{0xFF}, 3); !reflect.DeepEqual(got, []bool{true, true, true}) {
		t.Errorf("unpackBits() = %v, want %v", got, []bool{true, true, true})
	}
}
