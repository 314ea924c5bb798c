package wavout

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSampleDepth is returned when the sample depth of the
// stream cannot be represented by the raw PCM output stage.
var ErrUnsupportedSampleDepth = errors.New("sample depth not supported by WAV output")

func errUnsupportedSampleDepth(bps uint8) error {
	return fmt.Errorf("wavout.NewWriter: %w; bits-per-sample (%d) is not a multiple of 8", ErrUnsupportedSampleDepth, bps)
}
