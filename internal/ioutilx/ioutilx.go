// Package ioutilx implements extended input/output utility functions.
package ioutilx

import "io"

// ReadByte reads and returns the next byte from r.
func ReadByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}

	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}
