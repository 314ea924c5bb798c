package bits

import (
	"math"
	"testing"
)

func TestZigZag(t *testing.T) {
	tests := []struct {
		decoded int32
		encoded uint32
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{-3, 5},
		{3, 6},
		{math.MaxInt32, math.MaxUint32 - 1},
		{math.MinInt32, math.MaxUint32},
	}

	for _, test := range tests {
		if got := EncodeZigZag(test.decoded); got != test.encoded {
			t.Errorf("EncodeZigZag(%d) mismatch; expected %d, got %d", test.decoded, test.encoded, got)
		}

		if got := DecodeZigZag(test.encoded); got != test.decoded {
			t.Errorf("DecodeZigZag(%d) mismatch; expected %d, got %d", test.encoded, test.decoded, got)
		}
	}
}

func TestZigZagRoundTrip(t *testing.T) {
	for _, magnitude := range []int32{0, 1, 2, 255, 1 << 15, 1 << 23, math.MaxInt32 - 1, math.MaxInt32} {
		for _, want := range []int32{magnitude, -magnitude} {
			if got := DecodeZigZag(EncodeZigZag(want)); got != want {
				t.Errorf("zigzag round trip mismatch; expected %d, got %d", want, got)
			}
		}
	}
}

func TestIntN(t *testing.T) {
	tests := []struct {
		x    uint64
		n    uint
		want int64
	}{
		{0, 0, 0},
		{0x7, 3, -1}, // 0b111 stored with 3 bits is -1
		{0x3, 3, 3},
		{0x4, 3, -4},
		{0xFF, 8, -1},
		{0x7F, 8, 127},
		{0x80, 8, -128},
		{0xFFFF, 17, 0xFFFF},
	}

	for _, test := range tests {
		if got := IntN(test.x, test.n); got != test.want {
			t.Errorf("IntN(%#x, %d) mismatch; expected %d, got %d", test.x, test.n, test.want, got)
		}
	}
}
