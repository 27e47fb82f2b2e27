package gox

import (
	"errors"
	"fmt"

	"github.com/bodgit/gox/atlas"
	"github.com/bodgit/gox/chunk"
	"github.com/bodgit/gox/dict"
)

var (
	// ErrFormatMismatch is matched by every *FormatError.
	ErrFormatMismatch = errors.New("gox: not a gox file")

	// ErrMalformedChunk is matched by truncated chunks and by payloads a
	// grammar did not consume exactly.
	ErrMalformedChunk = chunk.ErrMalformed

	// ErrMalformedRecord is matched by truncated records.
	ErrMalformedRecord = dict.ErrMalformed

	// ErrRasterShape is matched when an atlas is not 64 by 64 8-bit RGBA.
	ErrRasterShape = atlas.ErrShape

	// ErrNoAtlas is returned for a block whose atlas index does not name a
	// usable atlas.
	ErrNoAtlas = errors.New("gox: block references a missing atlas")
)

// FormatError is returned when the header is missing or its magic is wrong.
// No chunks are decoded.
type FormatError struct {
	Magic  string
	Length int
}

func (e *FormatError) Error() string {
	if e.Magic == Magic {
		return fmt.Sprintf("gox: truncated header (%d bytes)", e.Length)
	}
	return fmt.Sprintf("gox: bad magic %q", e.Magic)
}

// Is reports whether target is ErrFormatMismatch.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormatMismatch
}

// GrammarError reports a chunk whose payload did not match the grammar for
// its type. The chunk is kept as a *Raw payload and decoding continues with
// the next chunk.
type GrammarError struct {
	Offset int
	Type   string
	Err    error
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("gox: %q chunk at offset %#x: %v", e.Type, e.Offset, e.Err)
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// BlockError reports a block left out of a layer's voxel map.
type BlockError struct {
	Layer int
	Block int
	Index int32
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("gox: layer %d block %d (atlas %d): %v", e.Layer, e.Block, e.Index, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}
