/*
Package atlas implements the BL16 block atlas found in .gox containers.

A block atlas is a complete PNG image of 64 by 64 pixels, 8-bit RGBA,
holding the colors of one 16 by 16 by 16 voxel block. The payload is the PNG
signature followed by the usual stream of raster chunks, which share their
envelope with the container chunks (see package chunk) but use big-endian
lengths.

Parse walks the raster chunks and decodes IHDR only as far as is needed to
validate the shape. Turning the compressed scanlines into pixels is delegated
to a Decoder, by default the standard library PNG decoder.
*/
package atlas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/bodgit/gox/chunk"
	"github.com/bodgit/gox/cursor"
)

const (
	// Size is the width and height of an atlas in pixels.
	Size = 64

	// Signature prefixes every atlas payload.
	Signature = "\x89PNG\r\n\x1a\n"

	bitDepth       = 8
	colorTypeRGBA  = 6
	headerLength   = 13
	typeHeader     = "IHDR"
	typeData       = "IDAT"
	typeEnd        = "IEND"
	bytesPerPixel  = 4
	filterTypeNone = 0
)

var (
	// ErrSignature is returned when a payload does not start with Signature.
	ErrSignature = errors.New("atlas: bad raster signature")
	// ErrShape is matched by every *ShapeError.
	ErrShape = errors.New("atlas: unexpected raster shape")

	errNoHeader = errors.New("atlas: missing or short IHDR")
	errNoData   = errors.New("atlas: missing IDAT")
)

// ShapeError reports a raster that is not 64 by 64 pixels of 8-bit RGBA.
type ShapeError struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType uint8
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("atlas: raster is %dx%d, depth %d, color type %d; want %dx%d, depth %d, color type %d",
		e.Width, e.Height, e.BitDepth, e.ColorType, Size, Size, bitDepth, colorTypeRGBA)
}

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// Header holds the fields of the IHDR raster chunk.
type Header struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorType   uint8
	Compression uint8
	Filter      uint8
	Interlace   uint8
}

func parseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) != headerLength {
		return h, errNoHeader
	}
	c := cursor.New(b, binary.BigEndian)
	h.Width, _ = c.Uint32()
	h.Height, _ = c.Uint32()
	h.BitDepth, _ = c.Uint8()
	h.ColorType, _ = c.Uint8()
	h.Compression, _ = c.Uint8()
	h.Filter, _ = c.Uint8()
	h.Interlace, _ = c.Uint8()
	return h, nil
}

// Atlas is a parsed block atlas. Data holds the complete payload and is
// never modified.
type Atlas struct {
	Data   []byte
	Header Header
	Types  []string
}

// Parse validates the raster stream in b. The returned Atlas holds a copy of
// b.
func Parse(b []byte) (*Atlas, error) {
	if len(b) < len(Signature) || string(b[:len(Signature)]) != Signature {
		return nil, ErrSignature
	}

	c := cursor.New(b, binary.BigEndian)
	_, _ = c.Next(len(Signature))

	chunks, err := chunk.DecodeAll(c, chunk.Raster)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 || chunks[0].Type != typeHeader {
		return nil, errNoHeader
	}
	h, err := parseHeader(chunks[0].Data)
	if err != nil {
		return nil, err
	}

	a := &Atlas{
		Data:   append([]byte(nil), b...),
		Header: h,
	}

	var data bool
	for _, ch := range chunks {
		a.Types = append(a.Types, ch.Type)
		if ch.Type == typeData {
			data = true
		}
	}
	if !data {
		return nil, errNoData
	}

	return a, nil
}

// CheckShape reports whether the declared raster shape is the one voxel
// reconstruction expects.
func (a *Atlas) CheckShape() error {
	h := a.Header
	if h.Width != Size || h.Height != Size || h.BitDepth != bitDepth || h.ColorType != colorTypeRGBA {
		return &ShapeError{
			Width:     int(h.Width),
			Height:    int(h.Height),
			BitDepth:  h.BitDepth,
			ColorType: h.ColorType,
		}
	}
	return nil
}

// MarshalBinary returns the payload unchanged.
func (a *Atlas) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), a.Data...), nil
}

// Decoder turns a complete raster stream into an image.
type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(r io.Reader) (image.Image, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.Reader) (image.Image, error) {
	return f(r)
}

// PNG is the default raster decoder.
var PNG Decoder = DecoderFunc(png.Decode)

// Image validates the atlas shape and decodes its pixels with d. Errors from
// d are returned unchanged.
func (a *Atlas) Image(d Decoder) (image.Image, error) {
	if err := a.CheckShape(); err != nil {
		return nil, err
	}
	m, err := d.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return nil, err
	}
	if b := m.Bounds(); b.Dx() != Size || b.Dy() != Size {
		return nil, &ShapeError{
			Width:     b.Dx(),
			Height:    b.Dy(),
			BitDepth:  a.Header.BitDepth,
			ColorType: a.Header.ColorType,
		}
	}
	return m, nil
}
