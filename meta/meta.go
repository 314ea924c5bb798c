// Package meta implements access to FLAC metadata blocks.
// A FLAC stream starts with a mandatory StreamInfo metadata block,
// optionally followed by other metadata blocks.
// Only the StreamInfo block carries information required for decoding;
// every other block type is skipped by its declared length,
// as is any block with a reserved type.
package meta

import (
	"encoding/binary"
	"io"
)

// Metadata block body types.
const (
	TypeStreamInfo    Type = 0
	TypePadding       Type = 1
	TypeApplication   Type = 2
	TypeSeekTable     Type = 3
	TypeVorbisComment Type = 4
	TypeCueSheet      Type = 5
	TypePicture       Type = 6
)

// Type represents the type of a metadata block body.
type Type uint8

func (t Type) String() string {
	switch t {
	case TypeStreamInfo:
		return "stream info"
	case TypePadding:
		return "padding"
	case TypeApplication:
		return "application"
	case TypeSeekTable:
		return "seek table"
	case TypeVorbisComment:
		return "vorbis comment"
	case TypeCueSheet:
		return "cue sheet"
	case TypePicture:
		return "picture"
	default:
		return "<unknown block type>"
	}
}

// Header contains information about the type and
// length of a metadata block.
type Header struct {
	// IsLast specifies if the block is the last metadata block.
	IsLast bool
	// Type of the metadata block body.
	Type Type
	// Length of the metadata block body in bytes.
	Length int64
}

// Block contains the header and body of a metadata block.
type Block struct {
	// Metadata block header.
	Header
	// Metadata block body of type *StreamInfo;
	// nil if the block was skipped.
	Body interface{}
	// Underlying reader, limited to the block body.
	lr io.Reader
}

// New parses the header of a metadata block from r and
// returns a block whose body has not yet been consumed.
// Call Block.Parse to parse the body of a StreamInfo block,
// and Block.Skip to discard the body of any block.
func New(r io.Reader) (block *Block, err error) {
	// 8 bits: IsLast (1 bit) and Type (7 bits).
	var buf [4]byte
	if _, err = io.ReadFull(r, buf[:1]); err != nil {
		return nil, err
	}

	block = &Block{
		Header: Header{
			IsLast: buf[0]&0x80 != 0,
			Type:   Type(buf[0] & 0x7F),
		},
	}

	// 24 bits: Length.
	if _, err = io.ReadFull(r, buf[1:]); err != nil {
		return block, unexpected(err)
	}

	block.Length = int64(binary.BigEndian.Uint32(buf[:]) & 0x00FFFFFF)
	block.lr = io.LimitReader(r, block.Length)
	return block, nil
}

// Parse reads and parses the header and body of a metadata block from r.
// Bodies of all block types except StreamInfo are skipped by
// their declared length.
func Parse(r io.Reader) (block *Block, err error) {
	if block, err = New(r); err != nil {
		return block, err
	}

	if block.Type == TypeStreamInfo {
		if err = block.parseStreamInfo(); err != nil {
			return block, err
		}
		return block, nil
	}

	return block, block.Skip()
}

// Skip discards the remainder of the block body.
func (block *Block) Skip() error {
	if _, err := io.Copy(io.Discard, block.lr); err != nil {
		return unexpected(err)
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
