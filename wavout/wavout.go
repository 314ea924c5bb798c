// Package wavout writes decoded FLAC audio frames to a WAV container.
//
// It uses the github.com/go-audio module for WAV file handling.
// The WAV headers carry the stream parameters of the StreamInfo metadata
// block; each decoded frame is interleaved by sample position and appended
// to the data chunk.
package wavout

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pchchv/flacdec/frame"
	"github.com/pchchv/flacdec/meta"
)

// Writer emits decoded audio frames into a WAV container.
type Writer struct {
	enc    *wav.Encoder
	format *audio.Format
	// Sample size in bits-per-sample; a multiple of 8.
	bps int
	// Total number of inter-channel samples written.
	nsamples uint64
}

// NewWriter returns a new Writer that writes a WAV file to ws,
// using the stream parameters of the given StreamInfo metadata block.
//
// Note: the Close method of the writer must be called when all frames
// have been written, to flush the WAV chunk sizes.
func NewWriter(ws io.WriteSeeker, info *meta.StreamInfo) (*Writer, error) {
	// Raw PCM output stores whole bytes per sample;
	// the FLAC sample depth must be a multiple of 8.
	// This is a limitation of the container, not of the decoder.
	if info.BitsPerSample%8 != 0 {
		return nil, errUnsupportedSampleDepth(info.BitsPerSample)
	}

	format := &audio.Format{
		NumChannels: int(info.NChannels),
		SampleRate:  int(info.SampleRate),
	}

	return &Writer{
		enc:    wav.NewEncoder(ws, format.SampleRate, int(info.BitsPerSample), format.NumChannels, 1),
		format: format,
		bps:    int(info.BitsPerSample),
	}, nil
}

// WriteFrame appends the decoded audio samples of
// fr to the WAV data chunk,
// interleaved by sample position and then by channel.
func (w *Writer) WriteFrame(fr *frame.Frame) error {
	n := int(fr.BlockSize)
	data := make([]int, 0, n*len(fr.Subframes))
	for i := 0; i < n; i++ {
		for _, subframe := range fr.Subframes {
			sample := int(subframe.Samples[i])
			// 8-bit WAV samples are stored unsigned.
			if w.bps == 8 {
				sample += 128
			}
			data = append(data, sample)
		}
	}

	w.nsamples += uint64(n)
	return w.enc.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           data,
		SourceBitDepth: w.bps,
	})
}

// NSamples returns the total number of
// inter-channel samples written so far.
func (w *Writer) NSamples() uint64 {
	return w.nsamples
}

// Close finalizes the WAV headers.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.enc.Close()
}
