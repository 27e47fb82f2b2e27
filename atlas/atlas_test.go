package atlas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/bodgit/gox/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	m.SetNRGBA(0, 0, color.NRGBA{0xff, 0x00, 0x00, 0xff})
	m.SetNRGBA(48, 3, color.NRGBA{0x10, 0x20, 0x30, 0xff})
	m.SetNRGBA(63, 63, color.NRGBA{0x01, 0x02, 0x03, 0x80})
	return m
}

func encode(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))
	return buf.Bytes()
}

func rawAtlas(t *testing.T, width, height uint32, colorType uint8, idat bool) []byte {
	t.Helper()
	var h [headerLength]byte
	binary.BigEndian.PutUint32(h[0:], width)
	binary.BigEndian.PutUint32(h[4:], height)
	h[8] = bitDepth
	h[9] = colorType

	b := []byte(Signature)
	var err error
	b, err = chunk.Append(b, chunk.Raster, typeHeader, h[:])
	require.NoError(t, err)
	if idat {
		b, err = chunk.Append(b, chunk.Raster, typeData, []byte{0x78, 0x9c})
		require.NoError(t, err)
	}
	b, err = chunk.Append(b, chunk.Raster, typeEnd, nil)
	require.NoError(t, err)
	return b
}

func TestEncodeParseDecode(t *testing.T) {
	in := testImage()
	b := encode(t, in)

	a, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, Header{Width: Size, Height: Size, BitDepth: 8, ColorType: 6}, a.Header)
	assert.Equal(t, []string{"IHDR", "IDAT", "IEND"}, a.Types)
	assert.NoError(t, a.CheckShape())

	out, err := a.Image(PNG)
	require.NoError(t, err)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			assert.Equal(t, in.NRGBAAt(x, y), color.NRGBAModel.Convert(out.At(x, y)), "pixel %d,%d", x, y)
		}
	}

	got, err := a.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestEncodeOpaqueStaysRGBA(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i+3] = 0xff
	}

	a, err := Parse(encode(t, m))
	require.NoError(t, err)
	assert.Equal(t, uint8(colorTypeRGBA), a.Header.ColorType)
}

func TestEncodeWrongSize(t *testing.T) {
	err := Encode(io.Discard, image.NewNRGBA(image.Rect(0, 0, 32, 64)))
	assert.True(t, errors.Is(err, ErrShape))
}

func TestParseSignature(t *testing.T) {
	_, err := Parse([]byte("GIF89a"))
	assert.Equal(t, ErrSignature, err)

	b := encode(t, testImage())
	b[1] = 'X'
	_, err = Parse(b)
	assert.Equal(t, ErrSignature, err)
}

func TestParseTruncated(t *testing.T) {
	b := encode(t, testImage())
	_, err := Parse(b[:len(b)-6])
	assert.True(t, errors.Is(err, chunk.ErrMalformed))
}

func TestParseMissingChunks(t *testing.T) {
	_, err := Parse([]byte(Signature))
	assert.Equal(t, errNoHeader, err)

	_, err = Parse(rawAtlas(t, Size, Size, colorTypeRGBA, false))
	assert.Equal(t, errNoData, err)
}

func TestShapeMismatch(t *testing.T) {
	tables := []struct {
		name      string
		width     uint32
		height    uint32
		colorType uint8
	}{
		{"small", 32, 32, colorTypeRGBA},
		{"tall", 64, 128, colorTypeRGBA},
		{"rgb", 64, 64, 2},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			a, err := Parse(rawAtlas(t, table.width, table.height, table.colorType, true))
			require.NoError(t, err)

			_, err = a.Image(PNG)
			assert.True(t, errors.Is(err, ErrShape))

			var se *ShapeError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, int(table.width), se.Width)
			assert.Equal(t, int(table.height), se.Height)
		})
	}
}

func TestDecoderErrorUnchanged(t *testing.T) {
	a, err := Parse(encode(t, testImage()))
	require.NoError(t, err)

	sentinel := errors.New("inflate failed")
	_, err = a.Image(DecoderFunc(func(io.Reader) (image.Image, error) {
		return nil, sentinel
	}))
	assert.Equal(t, sentinel, err)
}

func TestDecodedBoundsChecked(t *testing.T) {
	a, err := Parse(encode(t, testImage()))
	require.NoError(t, err)

	_, err = a.Image(DecoderFunc(func(io.Reader) (image.Image, error) {
		return image.NewNRGBA(image.Rect(0, 0, 16, 16)), nil
	}))
	assert.True(t, errors.Is(err, ErrShape))
}
