// Package flacdec provides access to FLAC (Free Lossless Audio Codec) streams,
// decoding their audio frames into raw PCM samples.
//
// Decoding is strictly sequential:
// every frame's start position depends on having fully consumed the bits of
// the previous frame, and any structural violation aborts the whole decode.
// CRC and MD5 checksum fields of the format are consumed but never validated.
package flacdec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pchchv/flacdec/frame"
	"github.com/pchchv/flacdec/meta"
)

var (
	flacSignature = []byte("fLaC") // marks the beginning of a FLAC stream
	id3Signature  = []byte("ID3")  // marks the beginning of an ID3 stream, used to skip over ID3 data

	// ErrInvalidFormat is returned when the stream does not start with
	// the FLAC signature.
	ErrInvalidFormat = errors.New("invalid FLAC signature")
	// ErrMissingStreamInfo is returned when no StreamInfo metadata block
	// was encountered before the audio frames begin.
	ErrMissingStreamInfo = errors.New("missing StreamInfo metadata block")
)

// Stream contains the metadata blocks and
// provides access to the audio frames of a FLAC stream.
type Stream struct {
	// The StreamInfo metadata block describes
	// the basic properties of the FLAC audio stream.
	Info *meta.StreamInfo
	// Zero or more metadata blocks, bodies skipped.
	Blocks []*meta.Block
	// Underlying io.Reader, or io.ReadCloser.
	r io.Reader
}

// New creates a new Stream for accessing the audio samples of r.
// It reads and parses the FLAC signature and all metadata block headers,
// extracting the StreamInfo block and skipping the bodies of all others.
//
// Call Stream.ParseNext to parse the next audio frame,
// including its audio samples.
func New(r io.Reader) (stream *Stream, err error) {
	br := bufio.NewReader(r)
	stream = &Stream{r: br}
	if err = stream.parseSignature(); err != nil {
		return nil, err
	}

	// parse metadata blocks;
	// only the body of the StreamInfo block is of interest,
	// every other block type is skipped by its declared length.
	for {
		block, err := meta.Parse(br)
		if err != nil {
			// The previous block promised more metadata blocks,
			// so end of input here is truncation, not clean termination.
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if si, ok := block.Body.(*meta.StreamInfo); ok {
			stream.Info = si
		}
		stream.Blocks = append(stream.Blocks, block)

		if block.IsLast {
			break
		}
	}

	if stream.Info == nil {
		return nil, fmt.Errorf("flacdec.New: %w", ErrMissingStreamInfo)
	}

	return stream, nil
}

// Open creates a new Stream for accessing the audio samples of path.
//
// Note: the Close method of the stream must be called when finished using it.
func Open(path string) (stream *Stream, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stream, err = New(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return stream, nil
}

// Close closes the stream gracefully if the underlying io.Reader also implements the io.Closer interface.
func (stream *Stream) Close() error {
	if closer, ok := stream.r.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// ParseNext parses the next audio frame of the stream,
// including its audio samples.
// It returns io.EOF when the stream is exhausted exactly at a frame
// boundary, which signals the clean end of the stream.
func (stream *Stream) ParseNext() (*frame.Frame, error) {
	return frame.Parse(stream.r, stream.Info)
}

// parseSignature verifies the signature which marks the beginning of a
// FLAC stream, skipping prepended ID3v2 data if present.
func (stream *Stream) parseSignature() error {
	r := stream.r
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}

	// skip prepended ID3v2 data.
	if bytes.Equal(buf[:3], id3Signature) {
		if err := stream.skipID3v2(); err != nil {
			return err
		}

		// second attempt at verifying signature.
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
	}

	if !bytes.Equal(buf[:], flacSignature) {
		return fmt.Errorf("flacdec.New: %w; expected %q, got %q", ErrInvalidFormat, flacSignature, buf)
	}

	return nil
}

// skipID3v2 skips ID3v2 data prepended to flac files.
func (stream *Stream) skipID3v2() error {
	r, ok := stream.r.(*bufio.Reader)
	if !ok {
		r = bufio.NewReader(stream.r)
		stream.r = r
	}
	// discard unnecessary data from the ID3v2 header.
	if _, err := r.Discard(2); err != nil {
		return err
	}

	// read the size from the ID3v2 header.
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return err
	}

	// size is encoded as a synchsafe integer.
	size := int(sizeBuf[0])<<21 | int(sizeBuf[1])<<14 | int(sizeBuf[2])<<7 | int(sizeBuf[3])
	_, err := r.Discard(size)
	return err
}
