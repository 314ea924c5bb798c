package meta

import (
	"crypto/md5"
	"fmt"

	"github.com/pchchv/flacdec/internal/bits"
)

// StreamInfo contains the basic properties of a FLAC audio stream,
// such as its sample rate and channel count.
// It is the only mandatory metadata block.
type StreamInfo struct {
	// Minimum and maximum block size (in samples) used in the stream;
	// between 16 and 65535 samples.
	BlockSizeMin, BlockSizeMax uint16
	// Minimum and maximum frame size (in bytes) used in the stream;
	// a 0 value implies unknown.
	FrameSizeMin, FrameSizeMax uint32
	// Sample rate in Hz; between 1 and 655350 Hz.
	SampleRate uint32
	// Number of channels; between 1 and 8 channels.
	NChannels uint8
	// Sample size in bits-per-sample; between 4 and 32 bits.
	BitsPerSample uint8
	// Total number of inter-channel samples in the stream.
	// A 0 value implies unknown.
	NSamples uint64
	// MD5 checksum of the unencoded audio samples.
	// It is carried through for callers but never validated.
	MD5sum [md5.Size]byte
}

// parseStreamInfo reads and parses the body of a StreamInfo metadata block.
func (block *Block) parseStreamInfo() error {
	br := bits.NewReader(block.lr)
	si := new(StreamInfo)
	block.Body = si

	// 16 bits: BlockSizeMin.
	x, err := br.Read(16)
	if err != nil {
		return unexpected(err)
	}
	si.BlockSizeMin = uint16(x)

	// 16 bits: BlockSizeMax.
	if x, err = br.Read(16); err != nil {
		return unexpected(err)
	}
	si.BlockSizeMax = uint16(x)

	// 24 bits: FrameSizeMin.
	if x, err = br.Read(24); err != nil {
		return unexpected(err)
	}
	si.FrameSizeMin = uint32(x)

	// 24 bits: FrameSizeMax.
	if x, err = br.Read(24); err != nil {
		return unexpected(err)
	}
	si.FrameSizeMax = uint32(x)

	// 20 bits: SampleRate.
	if x, err = br.Read(20); err != nil {
		return unexpected(err)
	}
	si.SampleRate = uint32(x)

	// 3 bits: NChannels; stored as (number of channels) - 1.
	if x, err = br.Read(3); err != nil {
		return unexpected(err)
	}
	si.NChannels = uint8(x + 1)

	// 5 bits: BitsPerSample; stored as (bits-per-sample) - 1.
	if x, err = br.Read(5); err != nil {
		return unexpected(err)
	}
	si.BitsPerSample = uint8(x + 1)

	// 36 bits: NSamples.
	if x, err = br.Read(36); err != nil {
		return unexpected(err)
	}
	si.NSamples = x

	// 128 bits: MD5sum; read but never validated.
	for i := range si.MD5sum {
		if x, err = br.Read(8); err != nil {
			return unexpected(err)
		}
		si.MD5sum[i] = uint8(x)
	}

	if si.SampleRate == 0 {
		return fmt.Errorf("meta.Block.parseStreamInfo: invalid sample rate (%d)", si.SampleRate)
	}

	return nil
}
