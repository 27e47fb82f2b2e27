package atlas

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/gox/chunk"
	"github.com/klauspost/compress/zlib"
)

type encoder struct {
	w   io.Writer
	b   []byte
	err error
}

func (e *encoder) writeChunk(typ string, data []byte) {
	if e.err != nil {
		return
	}
	e.b, e.err = chunk.Append(e.b, chunk.Raster, typ, data)
}

func (e *encoder) writeHeader() {
	var b [headerLength]byte
	binary.BigEndian.PutUint32(b[0:], Size)
	binary.BigEndian.PutUint32(b[4:], Size)
	b[8] = bitDepth
	b[9] = colorTypeRGBA
	// Compression, filter and interlace methods are all zero
	e.writeChunk(typeHeader, b[:])
}

func (e *encoder) writeData(m image.Image) {
	if e.err != nil {
		return
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)

	b := m.Bounds()
	row := make([]byte, 1+Size*bytesPerPixel)
	for y := 0; y < Size; y++ {
		row[0] = filterTypeNone
		for x := 0; x < Size; x++ {
			c := color.NRGBAModel.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := 1 + x*bytesPerPixel
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
		if _, e.err = zw.Write(row); e.err != nil {
			return
		}
	}
	if e.err = zw.Close(); e.err != nil {
		return
	}

	e.writeChunk(typeData, buf.Bytes())
}

func (e *encoder) encode(m image.Image) error {
	e.b = append(e.b, Signature...)
	e.writeHeader()
	e.writeData(m)
	e.writeChunk(typeEnd, nil)
	if e.err != nil {
		return e.err
	}
	_, err := e.w.Write(e.b)
	return err
}

// Encode writes the Image m to w as an atlas payload. m must be 64 by 64
// pixels; it is always written as 8-bit non-premultiplied RGBA, even when
// fully opaque.
func Encode(w io.Writer, m image.Image) error {
	if b := m.Bounds(); b.Dx() != Size || b.Dy() != Size {
		return &ShapeError{Width: b.Dx(), Height: b.Dy(), BitDepth: bitDepth, ColorType: colorTypeRGBA}
	}

	e := encoder{w: w}

	return e.encode(m)
}
