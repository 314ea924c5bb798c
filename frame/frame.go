// Package frame implements access to FLAC audio frames.
// FLAC encoders divide the audio stream into blocks through a process called blocking.
// A block contains uncoded audio samples from all channels in a short period of time.
// Each audio block is divided into sub-blocks, one per channel.
// There is often a correlation between the left and right channels of stereo audio.
// Using inter-channel decorrelation,
// it is possible to store only one of the channels and the difference between them,
// or store the average of the channels and their difference.
// The encoder decorrelates audio samples as follows:
//
//	mid = (left + right)/2 // average of the channels
//	side = left - right    // difference between the channels
//
// Blocks are encoded using different prediction methods and stored in frames.
// Blocks and sub-blocks contain unencoded audio samples,
// while frames and sub-frames contain encoded audio samples.
// A FLAC stream contains one or more audio frames.
package frame

import (
	"fmt"
	"io"

	"github.com/pchchv/flacdec/internal/bits"
	"github.com/pchchv/flacdec/internal/utf8"
	"github.com/pchchv/flacdec/meta"
)

// Channel assignments.
// Used abbreviations:
//
//	C:   center (directly in front)
//	R:   right (standard stereo)
//	Sr:  side right (directly to the right)
//	Rs:  right surround (back right)
//	Cs:  center surround (rear center)
//	Ls:  left surround (back left)
//	Sl:  side left (directly to the left)
//	L:   left (standard stereo)
//	Lfe: low-frequency effect (placed according to room acoustics)
//
// The first 6 channel constants follow the SMPTE/ITU-R channel order:
//
//	L R C Lfe Ls Rs
const (
	ChannelsMono           Channels = iota // 1 channel: mono.
	ChannelsLR                             // 2 channels: left, right.
	ChannelsLRC                            // 3 channels: left, right, center.
	ChannelsLRLsRs                         // 4 channels: left, right, left surround, right surround.
	ChannelsLRCLsRs                        // 5 channels: left, right, center, left surround, right surround.
	ChannelsLRCLfeLsRs                     // 6 channels: left, right, center, LFE, left surround, right surround.
	ChannelsLRCLfeCsSlSr                   // 7 channels: left, right, center, LFE, center surround, side left, side right.
	ChannelsLRCLfeLsRsSlSr                 // 8 channels: left, right, center, LFE, left surround, right surround, side left, side right.
	ChannelsLeftSide                       // 2 channels: left, side; using inter-channel decorrelation.
	ChannelsSideRight                      // 2 channels: side, right; using inter-channel decorrelation.
	ChannelsMidSide                        // 2 channels: mid, side; using inter-channel decorrelation.
)

// nChannels specifies the number of channels used by each channel assignment.
var nChannels = [...]int{
	ChannelsMono:           1,
	ChannelsLR:             2,
	ChannelsLRC:            3,
	ChannelsLRLsRs:         4,
	ChannelsLRCLsRs:        5,
	ChannelsLRCLfeLsRs:     6,
	ChannelsLRCLfeCsSlSr:   7,
	ChannelsLRCLfeLsRsSlSr: 8,
	ChannelsLeftSide:       2,
	ChannelsSideRight:      2,
	ChannelsMidSide:        2,
}

// Channels specifies the number of channels (subframes) that exist in a frame,
// their order and possible inter-channel decorrelation.
type Channels uint8

// Count returns the number of channels (subframes) used by
// the provided channel assignment.
func (channels Channels) Count() int {
	return nChannels[channels]
}

// Header contains the basic properties of an audio frame,
// such as its block size and channel assignment.
// To facilitate random access decoding each frame header starts with a sync-code.
// This allows the decoder to synchronize and locate the start of a frame header.
type Header struct {
	// Specifies if the block size is fixed or variable.
	HasFixedBlockSize bool
	// Block size in inter-channel samples,
	// i.e. the number of audio samples in each subframe.
	// Block size code 7 can express up to 65536 samples,
	// one more than fits in 16 bits.
	BlockSize uint32
	// Sample rate in Hz, as given by the StreamInfo metadata block.
	SampleRate uint32
	// Specifies the number of channels (subframes) that exist in the frame,
	// their order and possible inter-channel decorrelation.
	Channels Channels
	// Sample size in bits-per-sample,
	// as given by the StreamInfo metadata block.
	BitsPerSample uint8
	// Specifies the frame number if the block size is fixed,
	// and the first sample number in the frame otherwise.
	// When using fixed block size,
	// the first sample number in the frame can be derived
	// by multiplying the frame number with the block size (in samples).
	Num uint64
}

// Frame contains the header and subframes of an audio frame.
// It holds the encoded samples from a block (a part) of the audio stream.
// Each subframe holding the samples from one of its channel.
type Frame struct {
	// Audio frame header.
	Header
	// One subframe per channel, containing decoded audio samples.
	Subframes []*Subframe
	// A bit reader, wrapping read operations to r.
	br *bits.Reader
	// Underlying io.Reader.
	r io.Reader
}

// Parse reads and parses the next audio frame from r,
// including its audio samples.
// The bits-per-sample and channel count of the stream are taken from
// the StreamInfo metadata block;
// the corresponding frame header fields are consumed but not re-validated.
//
// It returns io.EOF when r is exhausted exactly at a frame boundary,
// which signals the clean end of the stream.
func Parse(r io.Reader, info *meta.StreamInfo) (fr *Frame, err error) {
	fr = &Frame{
		Header: Header{
			SampleRate:    info.SampleRate,
			BitsPerSample: info.BitsPerSample,
		},
		br: bits.NewReader(r),
		r:  r,
	}

	if err = fr.parseHeader(); err != nil {
		return nil, err
	}

	if err = fr.decodeSubframes(); err != nil {
		return nil, err
	}

	// discard padding up to the next byte boundary,
	// and the 16-bit frame footer CRC (never validated).
	fr.br.Align()
	if _, err = fr.br.Read(16); err != nil {
		return nil, unexpected(err)
	}

	return fr, nil
}

// parseHeader reads and parses the header of an audio frame.
// It returns io.EOF if the stream ends before
// any bit of the header has been consumed.
func (fr *Frame) parseHeader() error {
	// 14 bits: sync-code (11111111111110).
	// The first byte alone distinguishes a cleanly terminated stream from a
	// corrupt one; io.EOF on its read means no next frame exists.
	x, err := fr.br.Read(8)
	if err != nil {
		// This is the only read allowed to propagate io.EOF untouched.
		return err
	}

	sync := x << 6
	if x, err = fr.br.Read(6); err != nil {
		return unexpected(err)
	}

	if sync |= x; sync != 0x3FFE {
		return fmt.Errorf("frame.Frame.parseHeader: %w; expected %014b, got %014b", ErrSyncLost, 0x3FFE, sync)
	}

	// 1 bit: reserved.
	if _, err = fr.br.Read(1); err != nil {
		return unexpected(err)
	}

	// 1 bit: blocking strategy; 0 for fixed block size.
	if x, err = fr.br.Read(1); err != nil {
		return unexpected(err)
	}
	fr.HasFixedBlockSize = x == 0

	// 4 bits: block size code.
	// Codes 6 and 7 defer their extra bits until after the
	// frame/sample number field.
	blockSizeCode, err := fr.br.Read(4)
	if err != nil {
		return unexpected(err)
	}

	// 4 bits: sample rate code.
	// The value is not used by this decoder;
	// escape codes only affect how many header bytes follow.
	sampleRateCode, err := fr.br.Read(4)
	if err != nil {
		return unexpected(err)
	}

	// 4 bits: channel assignment.
	if x, err = fr.br.Read(4); err != nil {
		return unexpected(err)
	}

	if x > uint64(ChannelsMidSide) {
		return fmt.Errorf("frame.Frame.parseHeader: %w (%d)", ErrReservedChannelAssignment, x)
	}
	fr.Channels = Channels(x)

	// 3 bits: sample size code (StreamInfo governs; discarded),
	// and 1 bit: reserved.
	if _, err = fr.br.Read(4); err != nil {
		return unexpected(err)
	}

	// 8-56 bits: frame number or first sample number,
	// stored as a "UTF-8" coded number.
	// The frame header is byte aligned at this point,
	// so the number is read directly from the underlying reader.
	if fr.Num, err = utf8.Decode(fr.r); err != nil {
		return unexpected(err)
	}

	// 0-16 bits: deferred block size.
	switch {
	case blockSizeCode == 1:
		fr.BlockSize = 192
	case blockSizeCode >= 2 && blockSizeCode <= 5:
		fr.BlockSize = 576 << (blockSizeCode - 2)
	case blockSizeCode == 6:
		// 8 bits: block size - 1.
		if x, err = fr.br.Read(8); err != nil {
			return unexpected(err)
		}
		fr.BlockSize = uint32(x + 1)
	case blockSizeCode == 7:
		// 16 bits: block size - 1.
		if x, err = fr.br.Read(16); err != nil {
			return unexpected(err)
		}
		fr.BlockSize = uint32(x + 1)
	case blockSizeCode >= 8:
		fr.BlockSize = 256 << (blockSizeCode - 8)
	default:
		return fmt.Errorf("frame.Frame.parseHeader: %w (%d)", ErrReservedBlockSize, blockSizeCode)
	}

	// 0-8 bits: deferred sample rate escape byte; discarded.
	if sampleRateCode >= 12 && sampleRateCode <= 14 {
		if _, err = fr.br.Read(8); err != nil {
			return unexpected(err)
		}
	}

	// 8 bits: header CRC-8 (never validated).
	if _, err = fr.br.Read(8); err != nil {
		return unexpected(err)
	}

	return nil
}

// decodeSubframes decodes the subframes of the frame,
// one per channel, and undoes inter-channel decorrelation.
func (fr *Frame) decodeSubframes() error {
	// Decorrelated stereo assignments store the side (difference) channel
	// with one extra bit of sample depth.
	bps := uint(fr.BitsPerSample)
	var sideBits [2]uint
	switch fr.Channels {
	case ChannelsLeftSide, ChannelsMidSide:
		sideBits[1] = 1
	case ChannelsSideRight:
		sideBits[0] = 1
	}

	fr.Subframes = make([]*Subframe, fr.Channels.Count())
	for ch := range fr.Subframes {
		subframe := &Subframe{NSamples: int(fr.BlockSize)}
		var extra uint
		if ch < len(sideBits) {
			extra = sideBits[ch]
		}

		if err := subframe.decode(fr.br, bps+extra); err != nil {
			return err
		}
		fr.Subframes[ch] = subframe
	}

	// Undo inter-channel decorrelation.
	switch fr.Channels {
	case ChannelsLeftSide:
		decorrelateLeftSide(fr.Subframes[0].Samples, fr.Subframes[1].Samples)
	case ChannelsSideRight:
		decorrelateSideRight(fr.Subframes[0].Samples, fr.Subframes[1].Samples)
	case ChannelsMidSide:
		decorrelateMidSide(fr.Subframes[0].Samples, fr.Subframes[1].Samples)
	}

	return nil
}

// unexpected returns io.ErrUnexpectedEOF if error is io.EOF,
// and returns error otherwise.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
