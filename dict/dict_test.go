package dict

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/bodgit/gox/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(key string, value []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(key)))
	b = append(b, key...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(value)))
	return append(b, value...)
}

func le32(v ...uint32) []byte {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, x)
	}
	return b
}

func f32(v ...float32) []byte {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(x))
	}
	return b
}

func decode(t *testing.T, b []byte) Record {
	t.Helper()
	c := cursor.New(b, binary.LittleEndian)
	r, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	return r
}

func TestDecodeTypes(t *testing.T) {
	var mat []float32
	for i := 0; i < 16; i++ {
		mat = append(mat, float32(i))
	}

	tables := []struct {
		key   string
		value []byte
		want  Value
	}{
		{"dist", f32(12.5), Float(12.5)},
		{"metallic", f32(0.25), Float(0.25)},
		{"roughness", f32(1), Float(1)},
		{"emission", f32(0.5), Float(0.5)},
		{"ortho", []byte{1}, Bool(true)},
		{"visible", []byte{0}, Bool(false)},
		{"active", []byte{2}, Bool(true)},
		{"base_id", le32(7), Uint(7)},
		{"material", le32(3), Uint(3)},
		{"id", le32(0xdeadbeef), Uint(0xdeadbeef)},
		{"color", f32(1, 0.5, 0.25, 1), Color{1, 0.5, 0.25, 1}},
		{"name", []byte("layer 1"), Text("layer 1")},
		{"rot", f32(0, 0, 0, 1), Quat{0, 0, 0, 1}},
		{"ofs", f32(1, 2, 3), Vec3{1, 2, 3}},
		{"mat", f32(mat...), Matrix{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}, {12, 13, 14, 15}}},
		{"box", f32(mat...), Matrix{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}, {12, 13, 14, 15}}},
		{"shape", []byte("sphere"), Bytes("sphere")},
		{"emission", f32(1, 1, 1), Bytes(f32(1, 1, 1))},
	}

	for _, table := range tables {
		t.Run(table.key, func(t *testing.T) {
			r := decode(t, raw(table.key, table.value))
			assert.Equal(t, table.key, r.Key)
			assert.Equal(t, table.want, r.Value)
		})
	}
}

func TestDecodeEmptyValue(t *testing.T) {
	r := decode(t, raw("visible", nil))
	assert.Equal(t, Bool(false), r.Value)
	assert.True(t, r.Typed())

	r = decode(t, raw("color", nil))
	assert.Equal(t, Color{}, r.Value)

	r = decode(t, raw("name", nil))
	assert.Equal(t, Text(""), r.Value)
}

func TestDecodeMalformed(t *testing.T) {
	tables := []struct {
		name  string
		input []byte
		key   string
	}{
		{"key length", []byte{1, 0}, ""},
		{"key", append(le32(10), "abc"...), ""},
		{"value length", append(le32(4), "name"...), "name"},
		{"value", append(append(le32(4), "name"...), le32(100)...), "name"},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Decode(cursor.New(table.input, binary.LittleEndian))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))

			var de *Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, table.key, de.Key)
		})
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	rs := Records{
		{"name", Text("cam")},
		{"dist", Float(10)},
		{"rot", Quat{0.5, 0.5, 0.5, 0.5}},
		{"ofs", Vec3{-1, 0, 1}},
		{"ortho", Bool(true)},
		{"name", Text("duplicate")},
		{"extra", Bytes{1, 2, 3}},
		{"mat", Identity()},
	}

	b, err := rs.MarshalBinary()
	require.NoError(t, err)

	got, err := DecodeAll(cursor.New(b, binary.LittleEndian))
	require.NoError(t, err)
	assert.Equal(t, rs, got)

	b2, err := got.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}

func TestRecordsDecodeAllPartial(t *testing.T) {
	b := append(raw("id", le32(1)), 0xff, 0xff)
	rs, err := DecodeAll(cursor.New(b, binary.LittleEndian))
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Equal(t, Records{{"id", Uint(1)}}, rs)
}

func TestRecordsAccessors(t *testing.T) {
	rs := Records{
		{"name", Text("a")},
		{"visible", Bool(true)},
		{"material", Uint(2)},
		{"color", Color{1, 1, 1, 1}},
		{"emission", Bytes{0}},
	}

	name, ok := rs.Text("name")
	assert.True(t, ok)
	assert.Equal(t, "a", name)

	visible, ok := rs.Bool("visible")
	assert.True(t, ok)
	assert.True(t, visible)

	m, ok := rs.Uint("material")
	assert.True(t, ok)
	assert.Equal(t, uint32(2), m)

	_, ok = rs.Float("emission")
	assert.False(t, ok)
	_, ok = rs.Float("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"emission"}, rs.Untyped())

	rs.Set("name", Text("b"))
	rs.Set("id", Uint(9))
	name, _ = rs.Text("name")
	assert.Equal(t, "b", name)
	id, ok := rs.Uint("id")
	assert.True(t, ok)
	assert.Equal(t, uint32(9), id)
	assert.Len(t, rs, 6)
}

func TestRecordKindMismatch(t *testing.T) {
	tables := []struct {
		name   string
		record Record
	}{
		{"uint under float key", Record{"dist", Uint(5)}},
		{"empty bytes under bool key", Record{"visible", Bytes{}}},
		{"full width bytes under uint key", Record{"id", Bytes{1, 2, 3, 4}}},
		{"bytes under text key", Record{"name", Bytes("x")}},
		{"typed value under unknown key", Record{"shape", Text("sphere")}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := table.record.MarshalBinary()
			assert.True(t, errors.Is(err, ErrKind))
		})
	}

	_, err := Records{{"dist", Float(1)}, {"dist", Uint(5)}}.MarshalBinary()
	assert.True(t, errors.Is(err, ErrKind))
}

func TestRecordWrongWidthPassthrough(t *testing.T) {
	rs := Records{
		{"emission", Bytes(f32(1, 1, 1))},
		{"visible", Bytes{1, 0}},
	}

	b, err := rs.MarshalBinary()
	require.NoError(t, err)

	got, err := DecodeAll(cursor.New(b, binary.LittleEndian))
	require.NoError(t, err)
	assert.Equal(t, rs, got)
}

func TestRecordNoValue(t *testing.T) {
	_, err := Record{Key: "name"}.MarshalBinary()
	assert.Error(t, err)
}

func TestPlain(t *testing.T) {
	assert.Equal(t, float32(1), Plain(Float(1)))
	assert.Equal(t, uint32(1), Plain(Uint(1)))
	assert.Equal(t, "x", Plain(Text("x")))
	assert.Equal(t, []float32{1, 2, 3, 4}, Plain(Color{1, 2, 3, 4}))
	assert.Equal(t, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}, Plain(Identity()))
	assert.Equal(t, []byte{1}, Plain(Bytes{1}))
}
