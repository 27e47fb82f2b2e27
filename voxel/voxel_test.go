package voxel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/bodgit/gox/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{0xff, 0x00, 0x00, 0xff}

func blank() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, atlas.Size, atlas.Size))
}

func TestLocate(t *testing.T) {
	tables := []struct {
		x, y int
		want Point
	}{
		{0, 0, Point{0, 0, 0}},
		{15, 0, Point{15, 0, 0}},
		{16, 0, Point{0, 1, 0}},
		{48, 3, Point{0, 15, 0}},
		{63, 3, Point{15, 15, 0}},
		{0, 4, Point{0, 0, 1}},
		{63, 63, Point{15, 15, 15}},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, Locate(table.x, table.y), "pixel %d,%d", table.x, table.y)
	}
}

func TestPixelInverse(t *testing.T) {
	for y := 0; y < atlas.Size; y++ {
		for x := 0; x < atlas.Size; x++ {
			px, py := Pixel(Locate(x, y))
			require.Equal(t, x, px)
			require.Equal(t, y, py)
		}
	}
}

func TestAddBlockOffset(t *testing.T) {
	img := blank()
	img.SetNRGBA(0, 0, red)

	m := New()
	n, err := m.AddBlock(img, Point{0, 16, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, ok := m.At(Point{0, 16, 0})
	assert.True(t, ok)
	assert.Equal(t, red, c)
}

func TestAddBlockPixel(t *testing.T) {
	img := blank()
	img.SetNRGBA(48, 3, red)

	m := New()
	_, err := m.AddBlock(img, Point{})
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 15, 0}}, m.Points())
}

func TestAddBlockCountsOpaquePixels(t *testing.T) {
	img := blank()
	var want int
	for y := 0; y < atlas.Size; y++ {
		for x := 0; x < atlas.Size; x++ {
			if (x*7+y*13)%5 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 0, uint8(1 + x)})
				want++
			}
		}
	}

	m := New()
	n, err := m.AddBlock(img, Point{-16, 32, 48})
	require.NoError(t, err)
	assert.Equal(t, want, n)
	assert.Equal(t, want, m.Len())

	lo, hi, ok := m.Bounds()
	require.True(t, ok)
	assert.True(t, lo.X >= -16 && hi.X < 0)
	assert.True(t, lo.Y >= 32 && hi.Y < 48)
	assert.True(t, lo.Z >= 48 && hi.Z < 64)
}

func TestAddBlockLastWins(t *testing.T) {
	first := blank()
	first.SetNRGBA(0, 0, red)
	second := blank()
	second.SetNRGBA(0, 0, color.NRGBA{0, 0, 0xff, 0xff})

	m := New()
	_, err := m.AddBlock(first, Point{})
	require.NoError(t, err)
	_, err = m.AddBlock(second, Point{})
	require.NoError(t, err)

	c, _ := m.At(Point{})
	assert.Equal(t, color.NRGBA{0, 0, 0xff, 0xff}, c)
	assert.Equal(t, 1, m.Len())
}

func TestAddBlockShape(t *testing.T) {
	m := New()
	_, err := m.AddBlock(image.NewNRGBA(image.Rect(0, 0, 64, 32)), Point{})
	assert.True(t, errors.Is(err, atlas.ErrShape))
	assert.Equal(t, 0, m.Len())
}

func TestBlocksAndAtlas(t *testing.T) {
	m := New()
	m.Set(Point{0, 15, 0}, red)
	m.Set(Point{-1, 0, 0}, red)
	m.Set(Point{17, 0, 33}, red)

	assert.Equal(t, []Point{{-16, 0, 0}, {0, 0, 0}, {16, 0, 32}}, m.Blocks())

	img := m.Atlas(Point{})
	assert.Equal(t, red, img.NRGBAAt(48, 3))

	back := New()
	for _, origin := range m.Blocks() {
		_, err := back.AddBlock(m.Atlas(origin), origin)
		require.NoError(t, err)
	}
	assert.Equal(t, m.Points(), back.Points())
}

func TestBlock(t *testing.T) {
	assert.Equal(t, Point{-16, 0, 16}, Block(Point{-1, 15, 16}))
	assert.Equal(t, Point{-32, -16, 0}, Block(Point{-17, -16, 0}))
}

func TestMarshalBinary(t *testing.T) {
	m := New()
	m.Set(Point{1, 2, 3}, red)
	m.Set(Point{-4, 5, -6}, color.NRGBA{1, 2, 3, 4})

	b, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, 4+2*recordSize)

	got := New()
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, m, got)

	assert.Error(t, got.UnmarshalBinary(b[:len(b)-1]))
}

func TestText(t *testing.T) {
	m := New()
	m.Set(Point{1, 2, 3}, red)
	m.Set(Point{-1, 0, 0}, color.NRGBA{0x12, 0x34, 0x56, 0xff})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, m))
	assert.Equal(t, "# Goxel\n# One line per voxel\n# X Y Z RRGGBB\n-1 0 0 123456\n1 2 3 ff0000\n", buf.String())

	got, err := ReadText(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestTextSkipsTranslucent(t *testing.T) {
	m := New()
	m.Set(Point{1, 2, 3}, color.NRGBA{0x11, 0x22, 0x33, 0x10})
	m.Set(Point{4, 5, 6}, color.NRGBA{0x11, 0x22, 0x33, TextAlpha - 1})
	m.Set(Point{7, 8, 9}, color.NRGBA{0x44, 0x55, 0x66, TextAlpha})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, m))
	assert.NotContains(t, buf.String(), "112233")
	assert.True(t, strings.HasSuffix(buf.String(), "\n7 8 9 445566\n"))
}

func TestSetTransparent(t *testing.T) {
	m := New()
	m.Set(Point{1, 1, 1}, red)
	m.Set(Point{1, 1, 1}, color.NRGBA{0xff, 0xff, 0xff, 0})
	m.Set(Point{2, 2, 2}, color.NRGBA{})

	assert.Equal(t, 0, m.Len())
	_, ok := m.At(Point{1, 1, 1})
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	blue := color.NRGBA{0, 0, 0xff, 0xff}

	dst := New()
	dst.Set(Point{0, 0, 0}, red)
	dst.Set(Point{1, 0, 0}, red)

	src := New()
	src.Set(Point{1, 0, 0}, blue)
	src.Set(Point{2, 0, 0}, blue)

	dst.Merge(src)
	assert.Equal(t, 3, dst.Len())
	c, _ := dst.At(Point{0, 0, 0})
	assert.Equal(t, red, c)
	c, _ = dst.At(Point{1, 0, 0})
	assert.Equal(t, blue, c)
	assert.Equal(t, 2, src.Len())
}

func TestReadTextErrors(t *testing.T) {
	for _, input := range []string{
		"1 2 3\n",
		"a 2 3 ffffff\n",
		"1 2 3 fff\n",
		"1 2 3 zzzzzz\n",
	} {
		_, err := ReadText(strings.NewReader(input))
		assert.Error(t, err, input)
	}
}
