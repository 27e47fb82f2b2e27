package cursor

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReads(t *testing.T) {
	b := []byte{
		0x01, 0x00, 0x00, 0x00,
		0xff, 0xff, 0xff, 0xff,
		0x00, 0x00, 0x80, 0x3f,
		0x07,
	}
	c := New(b, binary.LittleEndian)

	u, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), u)

	i, err := c.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i)

	f, err := c.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(1), f)

	v, err := c.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), v)

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 13, c.Offset())
	assert.Len(t, c.Bytes(), 13)
}

func TestCursorBigEndian(t *testing.T) {
	c := New([]byte{0x00, 0x00, 0x00, 0x40}, binary.BigEndian)
	u, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40), u)
}

func TestCursorShort(t *testing.T) {
	c := New([]byte{0x01, 0x02}, binary.LittleEndian)
	_, err := c.Uint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var se *ShortError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ShortError{Offset: 0, Want: 4, Have: 2}, *se)

	// A failed read does not move the cursor
	assert.Equal(t, 2, c.Len())
}

func TestCursorSub(t *testing.T) {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(2.5))
	c := New(b, binary.LittleEndian)

	_, err := c.Next(4)
	require.NoError(t, err)

	s, err := c.Sub(4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Offset())
	assert.Equal(t, 8, c.Offset())

	f, err := s.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f)

	_, err = s.Uint8()
	var se *ShortError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 8, se.Offset)

	_, err = c.Sub(5)
	assert.Error(t, err)
}

func TestCursorNewAt(t *testing.T) {
	c := NewAt([]byte{1}, 100, binary.LittleEndian)
	assert.Equal(t, 100, c.Offset())

	_, err := c.Uint32()
	var se *ShortError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 100, se.Offset)
}
