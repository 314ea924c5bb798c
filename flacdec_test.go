package flacdec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/icza/bitio"
	"github.com/pchchv/flacdec"
	"github.com/pchchv/flacdec/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamParams bundles the StreamInfo values used by the synthesized
// test streams.
type streamParams struct {
	sampleRate uint64
	nchannels  uint64 // number of channels
	bps        uint64 // bits-per-sample
	nsamples   uint64 // total inter-channel sample count
}

// writeSignature writes the FLAC signature and a StreamInfo metadata
// block marked as the last metadata block.
func writeSignature(t *testing.T, bw *bitio.Writer, params streamParams) {
	t.Helper()
	_, err := bw.Write([]byte("fLaC"))
	require.NoError(t, err)

	// metadata block header.
	require.NoError(t, bw.WriteBool(true))   // IsLast
	require.NoError(t, bw.WriteBits(0, 7))   // type: StreamInfo
	require.NoError(t, bw.WriteBits(34, 24)) // length

	// StreamInfo block body.
	require.NoError(t, bw.WriteBits(16, 16))                // BlockSizeMin
	require.NoError(t, bw.WriteBits(65535, 16))             // BlockSizeMax
	require.NoError(t, bw.WriteBits(0, 24))                 // FrameSizeMin
	require.NoError(t, bw.WriteBits(0, 24))                 // FrameSizeMax
	require.NoError(t, bw.WriteBits(params.sampleRate, 20)) // SampleRate
	require.NoError(t, bw.WriteBits(params.nchannels-1, 3)) // NChannels - 1
	require.NoError(t, bw.WriteBits(params.bps-1, 5))       // BitsPerSample - 1
	require.NoError(t, bw.WriteBits(params.nsamples, 36))   // NSamples
	for i := 0; i < 16; i++ {                               // MD5sum (unchecked)
		require.NoError(t, bw.WriteBits(0, 8))
	}
}

// writeFrameHeader writes a frame header with block size code 6
// (8 bits: block size - 1 at the end of the header) and frame number 0.
func writeFrameHeader(t *testing.T, bw *bitio.Writer, blockSize, chanAsgn uint64) {
	t.Helper()
	require.NoError(t, bw.WriteBits(0x3FFE, 14))      // sync-code
	require.NoError(t, bw.WriteBits(0, 2))            // reserved, blocking strategy
	require.NoError(t, bw.WriteBits(6, 4))            // block size code
	require.NoError(t, bw.WriteBits(0, 4))            // sample rate code
	require.NoError(t, bw.WriteBits(chanAsgn, 4))     // channel assignment
	require.NoError(t, bw.WriteBits(0, 4))            // sample size code, reserved
	require.NoError(t, bw.WriteBits(0, 8))            // frame number, "UTF-8" coded
	require.NoError(t, bw.WriteBits(blockSize-1, 8))  // block size - 1
	require.NoError(t, bw.WriteBits(0, 8))            // header CRC-8 (unchecked)
}

// writeVerbatimSubframe writes a verbatim subframe storing the given
// samples at the given bits-per-sample.
func writeVerbatimSubframe(t *testing.T, bw *bitio.Writer, samples []int64, bps uint8) {
	t.Helper()
	require.NoError(t, bw.WriteBits(0, 1)) // zero padding
	require.NoError(t, bw.WriteBits(1, 6)) // subframe type: verbatim
	require.NoError(t, bw.WriteBits(0, 1)) // no wasted bits
	for _, sample := range samples {
		require.NoError(t, bw.WriteBits(uint64(uint32(sample))&(1<<bps-1), bps))
	}
}

// writeFrameFooter pads to a byte boundary and writes the unchecked
// 16-bit frame CRC.
func writeFrameFooter(t *testing.T, bw *bitio.Writer) {
	t.Helper()
	_, err := bw.Align()
	require.NoError(t, err)
	require.NoError(t, bw.WriteBits(0, 16))
}

func TestDecodeMonoConstant(t *testing.T) {
	// minimal mono stream: one frame of block size 4,
	// constant subframe encoding the value 1000.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 44100, nchannels: 1, bps: 16, nsamples: 4})
	writeFrameHeader(t, bw, 4, 0)
	require.NoError(t, bw.WriteBits(0, 1))       // zero padding
	require.NoError(t, bw.WriteBits(0, 6))       // subframe type: constant
	require.NoError(t, bw.WriteBits(0, 1))       // no wasted bits
	require.NoError(t, bw.WriteBits(1000, 16))   // constant value
	writeFrameFooter(t, bw)
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), stream.Info.SampleRate)
	assert.Equal(t, uint8(1), stream.Info.NChannels)
	assert.Equal(t, uint8(16), stream.Info.BitsPerSample)
	assert.Equal(t, uint64(4), stream.Info.NSamples)

	// exactly one frame with 4 samples, all equal to 1000.
	fr, err := stream.ParseNext()
	require.NoError(t, err)
	require.Len(t, fr.Subframes, 1)
	assert.Equal(t, []int64{1000, 1000, 1000, 1000}, fr.Subframes[0].Samples)

	_, err = stream.ParseNext()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeLeftSide(t *testing.T) {
	// two-channel stream with left/side decorrelation:
	// left decodes to [10 20 30], side to [2 2 2];
	// the reconstructed right channel is left - side.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 44100, nchannels: 2, bps: 16, nsamples: 3})
	writeFrameHeader(t, bw, 3, uint64(frame.ChannelsLeftSide))
	writeVerbatimSubframe(t, bw, []int64{10, 20, 30}, 16)
	writeVerbatimSubframe(t, bw, []int64{2, 2, 2}, 17) // side channel: one extra bit
	writeFrameFooter(t, bw)
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)

	fr, err := stream.ParseNext()
	require.NoError(t, err)
	require.Len(t, fr.Subframes, 2)
	assert.Equal(t, []int64{10, 20, 30}, fr.Subframes[0].Samples)
	assert.Equal(t, []int64{8, 18, 28}, fr.Subframes[1].Samples)

	_, err = stream.ParseNext()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeTotalSampleCount(t *testing.T) {
	// the decoded sample count across all frames matches the declared
	// total sample count of the StreamInfo block.
	const nframes = 3
	const blockSize = 16
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 8000, nchannels: 1, bps: 8, nsamples: nframes * blockSize})
	for i := 0; i < nframes; i++ {
		writeFrameHeader(t, bw, blockSize, 0)
		require.NoError(t, bw.WriteBits(0, 1))
		require.NoError(t, bw.WriteBits(0, 6)) // constant
		require.NoError(t, bw.WriteBits(0, 1))
		require.NoError(t, bw.WriteBits(uint64(i), 8))
		writeFrameFooter(t, bw)
	}
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)

	var total uint64
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		total += uint64(fr.BlockSize)
	}
	assert.Equal(t, stream.Info.NSamples, total)
}

func TestInvalidSignature(t *testing.T) {
	_, err := flacdec.New(bytes.NewReader([]byte("fLaX\x80\x00\x00\x22")))
	assert.ErrorIs(t, err, flacdec.ErrInvalidFormat)
}

func TestMissingStreamInfo(t *testing.T) {
	// a stream whose only metadata block is padding.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	_, err := bw.Write([]byte("fLaC"))
	require.NoError(t, err)
	require.NoError(t, bw.WriteBool(true)) // IsLast
	require.NoError(t, bw.WriteBits(1, 7)) // type: padding
	require.NoError(t, bw.WriteBits(2, 24))
	require.NoError(t, bw.WriteBits(0, 16))
	require.NoError(t, bw.Close())

	_, err = flacdec.New(buf)
	assert.ErrorIs(t, err, flacdec.ErrMissingStreamInfo)
}

func TestTruncatedMetadata(t *testing.T) {
	// input ending after a non-last metadata block is truncation,
	// not clean termination.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	_, err := bw.Write([]byte("fLaC"))
	require.NoError(t, err)
	require.NoError(t, bw.WriteBool(false)) // more blocks promised
	require.NoError(t, bw.WriteBits(1, 7))  // type: padding
	require.NoError(t, bw.WriteBits(2, 24))
	require.NoError(t, bw.WriteBits(0, 16))
	require.NoError(t, bw.Close())

	_, err = flacdec.New(buf)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSkippedMetadataBlocks(t *testing.T) {
	// unknown and non-essential metadata blocks are skipped by their
	// declared length.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	_, err := bw.Write([]byte("fLaC"))
	require.NoError(t, err)

	// application block with an opaque body.
	require.NoError(t, bw.WriteBool(false))
	require.NoError(t, bw.WriteBits(2, 7))
	require.NoError(t, bw.WriteBits(5, 24))
	_, err = bw.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01})
	require.NoError(t, err)

	// reserved block type, also skipped by length.
	require.NoError(t, bw.WriteBool(false))
	require.NoError(t, bw.WriteBits(120, 7))
	require.NoError(t, bw.WriteBits(1, 24))
	require.NoError(t, bw.WriteBits(0xAA, 8))

	writeLastStreamInfoBlock(t, bw)
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)
	assert.Len(t, stream.Blocks, 3)
	assert.Equal(t, uint8(2), stream.Info.NChannels)

	_, err = stream.ParseNext()
	assert.Equal(t, io.EOF, err)
}

// writeLastStreamInfoBlock writes a two channel StreamInfo metadata
// block marked as the last metadata block,
// without the preceding FLAC signature.
func writeLastStreamInfoBlock(t *testing.T, bw *bitio.Writer) {
	t.Helper()
	require.NoError(t, bw.WriteBool(true))
	require.NoError(t, bw.WriteBits(0, 7))
	require.NoError(t, bw.WriteBits(34, 24))
	require.NoError(t, bw.WriteBits(16, 16))
	require.NoError(t, bw.WriteBits(65535, 16))
	require.NoError(t, bw.WriteBits(0, 24))
	require.NoError(t, bw.WriteBits(0, 24))
	require.NoError(t, bw.WriteBits(44100, 20))
	require.NoError(t, bw.WriteBits(1, 3)) // NChannels - 1
	require.NoError(t, bw.WriteBits(15, 5))
	require.NoError(t, bw.WriteBits(0, 36))
	for i := 0; i < 16; i++ {
		require.NoError(t, bw.WriteBits(0, 8))
	}
}

func TestReservedChannelAssignment(t *testing.T) {
	// channel assignment code 11 aborts the decode before any sample
	// emission for the frame.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 44100, nchannels: 2, bps: 16, nsamples: 3})
	writeFrameHeader(t, bw, 3, 11)
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)

	fr, err := stream.ParseNext()
	assert.Nil(t, fr)
	assert.ErrorIs(t, err, frame.ErrReservedChannelAssignment)
}

func TestTruncatedStream(t *testing.T) {
	// input exhausted inside a frame is an error,
	// not a clean termination.
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 44100, nchannels: 1, bps: 16, nsamples: 4})
	writeFrameHeader(t, bw, 4, 0)
	require.NoError(t, bw.WriteBits(0, 1))
	require.NoError(t, bw.WriteBits(0, 6))
	require.NoError(t, bw.WriteBits(0, 1))
	// constant value cut short: only 8 of 16 bits present.
	require.NoError(t, bw.WriteBits(0, 8))
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(buf)
	require.NoError(t, err)

	_, err = stream.ParseNext()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSkipID3v2(t *testing.T) {
	// ID3v2 data prepended to the stream is skipped.
	id3 := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 2, 0xAA, 0xBB}
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	writeSignature(t, bw, streamParams{sampleRate: 44100, nchannels: 1, bps: 16, nsamples: 0})
	require.NoError(t, bw.Close())

	stream, err := flacdec.New(bytes.NewReader(append(id3, buf.Bytes()...)))
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), stream.Info.SampleRate)
}
