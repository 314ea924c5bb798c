package bits

// IntN interprets x as a signed n-bit integer value,
// stored in two's complement, and sign extends it to 64 bits.
func IntN(x uint64, n uint) int64 {
	if n == 0 {
		return 0
	}

	// x is signed if its most significant bit is set.
	if x&(1<<(n-1)) != 0 {
		// sign extend x
		return int64(x | ^uint64(0)<<n)
	}

	return int64(x)
}
