package frame

// Inter-channel decorrelation is undone after both subframes of a stereo
// pair have been decoded.
// The encoder stored either one literal channel and the difference between
// the channels (left/side, side/right),
// or the average of the channels and their difference (mid/side).
//
// The functions below operate in place on the decoded subframe sample
// slices, overwriting them with the reconstructed left and right channels.

// decorrelateLeftSide reconstructs the right channel from
// the left and side (left - right) channels.
// On return, side holds the right channel.
func decorrelateLeftSide(left, side []int64) {
	for i, s := range side {
		side[i] = left[i] - s
	}
}

// decorrelateSideRight reconstructs the left channel from
// the side (left - right) and right channels.
// On return, side holds the left channel.
func decorrelateSideRight(side, right []int64) {
	for i, s := range side {
		side[i] = right[i] + s
	}
}

// decorrelateMidSide reconstructs the left and right channels from
// the mid ((left + right) >> 1) and side (left - right) channels.
// The low bit of left + right was dropped when the encoder halved the sum;
// since side has the same parity as left + right,
// the arithmetic shift of side recovers it.
// On return, mid holds the left channel and side holds the right channel.
func decorrelateMidSide(mid, side []int64) {
	for i, s := range side {
		right := mid[i] - (s >> 1)
		mid[i] = right + s
		side[i] = right
	}
}
