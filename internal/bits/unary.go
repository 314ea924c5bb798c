package bits

import "github.com/icza/bitio"

// ReadUnary reads and returns a unary coded value;
// that is, the number of zero bits before the terminating one bit.
//
// Examples of unary coded binary on the left and decoded values on the
// right:
//
//	1 => 0
//	01 => 1
//	001 => 2
//	0001 => 3
func (br *Reader) ReadUnary() (x uint64, err error) {
	for {
		bit, err := br.Read(1)
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		x++
	}
	return x, nil
}

// WriteUnary encodes x as an unary coded value, writing to bw;
// that is, x zero bits followed by a terminating one bit.
func WriteUnary(bw *bitio.Writer, x uint64) error {
	for ; x > 0; x-- {
		if err := bw.WriteBool(false); err != nil {
			return err
		}
	}
	return bw.WriteBool(true)
}
