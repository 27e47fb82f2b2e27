/*
Package vox writes voxel maps in the MagicaVoxel .vox format.

The file is a "VOX " header and version followed by a MAIN chunk whose
children are a SIZE chunk, an XYZI chunk listing every voxel as four bytes
(x, y, z, colour index) and an RGBA palette chunk of 256 entries. Colour
index i refers to palette entry i-1; index 0 is empty space, so at most 255
colours can be stored. Maps with more colours are reduced with a median cut.
*/
package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/gox/voxel"
	"github.com/ericpauley/go-quantize/quantize"
)

const (
	magic   = "VOX "
	version = 150

	// MaxSize is the largest extent of a model along any axis.
	MaxSize = 256
	// MaxColors is the number of usable palette entries.
	MaxColors = 255
)

// ErrTooLarge is returned when a map does not fit in a single model.
var ErrTooLarge = errors.New("vox: map exceeds 256 voxels along an axis")

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v interface{}) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) writeBytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) writeChunk(id string, content, children []byte) {
	e.writeBytes([]byte(id))
	e.write(int32(len(content)))
	e.write(int32(len(children)))
	e.writeBytes(content)
	e.writeBytes(children)
}

func chunk(id string, content []byte) []byte {
	b := new(bytes.Buffer)
	e := &encoder{w: b}
	e.writeChunk(id, content, nil)
	return b.Bytes()
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}

// Palette returns the palette used to encode m, together with the index
// into it of every distinct colour in m. Colours are matched ignoring alpha.
func Palette(m *voxel.Map) (color.Palette, map[color.NRGBA]uint8) {
	var distinct []color.NRGBA
	seen := make(map[color.NRGBA]bool)
	for _, p := range m.Points() {
		c, _ := m.At(p)
		c = opaque(c)
		if !seen[c] {
			seen[c] = true
			distinct = append(distinct, c)
		}
	}

	var p color.Palette
	if len(distinct) <= MaxColors {
		p = make(color.Palette, len(distinct))
		for i, c := range distinct {
			p[i] = c
		}
	} else {
		// Lay the colours out in a strip so the quantizer sees each once
		img := image.NewNRGBA(image.Rect(0, 0, len(distinct), 1))
		for i, c := range distinct {
			img.SetNRGBA(i, 0, c)
		}
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, MaxColors), img)
	}

	index := make(map[color.NRGBA]uint8, len(distinct))
	for _, c := range distinct {
		index[c] = uint8(p.Index(c))
	}
	return p, index
}

// Encode writes m to w as a single model. The model is translated so its
// lowest voxel sits at the origin.
func Encode(w io.Writer, m *voxel.Map) error {
	lo, hi, ok := m.Bounds()
	size := [3]int32{1, 1, 1}
	if ok {
		size = [3]int32{int32(hi.X - lo.X + 1), int32(hi.Y - lo.Y + 1), int32(hi.Z - lo.Z + 1)}
	}
	for _, n := range size {
		if n > MaxSize {
			return fmt.Errorf("%w: %d", ErrTooLarge, n)
		}
	}

	p, index := Palette(m)

	sizeChunk := new(bytes.Buffer)
	if err := binary.Write(sizeChunk, binary.LittleEndian, size); err != nil {
		return err
	}

	points := m.Points()
	xyzi := new(bytes.Buffer)
	if err := binary.Write(xyzi, binary.LittleEndian, int32(len(points))); err != nil {
		return err
	}
	for _, pt := range points {
		c, _ := m.At(pt)
		xyzi.Write([]byte{
			uint8(pt.X - lo.X),
			uint8(pt.Y - lo.Y),
			uint8(pt.Z - lo.Z),
			index[opaque(c)] + 1,
		})
	}

	rgba := make([]byte, 0, 4*256)
	for i := 0; i < 256; i++ {
		if i < len(p) {
			c := color.NRGBAModel.Convert(p[i]).(color.NRGBA)
			rgba = append(rgba, c.R, c.G, c.B, 0xff)
		} else {
			rgba = append(rgba, 0, 0, 0, 0xff)
		}
	}

	var children []byte
	children = append(children, chunk("SIZE", sizeChunk.Bytes())...)
	children = append(children, chunk("XYZI", xyzi.Bytes())...)
	children = append(children, chunk("RGBA", rgba)...)

	e := &encoder{w: w}
	e.writeBytes([]byte(magic))
	e.write(int32(version))
	e.writeChunk("MAIN", nil, children)
	return e.err
}
