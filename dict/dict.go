/*
Package dict implements the key/value records nested inside .gox chunks.

Each record is written as a little-endian 32-bit key length, the ASCII key,
a little-endian 32-bit value length and the value bytes. There is no type tag;
the type of the value is determined by the key name:

	dist, metallic, roughness, emission    float32
	ortho, visible, active                 bool (one byte)
	base_id, material, id                  uint32
	color                                  4 x float32 (r, g, b, a)
	name                                   ASCII text
	rot                                    4 x float32
	ofs                                    3 x float32
	mat, box                               4 x 4 float32, row-major

Any other key, or a known key whose value length does not match its type, is
kept as opaque bytes. A value of length zero decodes to the zero value of its
type without reading anything.
*/
package dict

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bodgit/gox/cursor"
)

var (
	// ErrMalformed is matched by every *Error.
	ErrMalformed = errors.New("dict: malformed record")
	// ErrKind is returned when encoding a value that would not decode back
	// to itself under its key.
	ErrKind = errors.New("dict: value kind does not match key")
)

// Error describes a record whose declared key or value length overruns the
// remaining buffer.
type Error struct {
	Offset int
	Key    string
	Want   int
	Have   int
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("dict: truncated key at offset %#x (want %d bytes, have %d)", e.Offset, e.Want, e.Have)
	}
	return fmt.Sprintf("dict: truncated value for %q at offset %#x (want %d bytes, have %d)", e.Key, e.Offset, e.Want, e.Have)
}

// Is reports whether target is ErrMalformed.
func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}

// Record is a single key/value pair.
type Record struct {
	Key   string
	Value Value
}

// Typed reports whether the value was decoded through the key table rather
// than kept as opaque bytes.
func (r Record) Typed() bool {
	k, ok := Known(r.Key)
	return ok && r.Value != nil && r.Value.Kind() == k
}

func readLength(c *cursor.Cursor, key string) (int, error) {
	off := c.Offset()
	n, err := c.Uint32()
	if err != nil {
		return 0, &Error{Offset: off, Key: key, Want: 4, Have: c.Len()}
	}
	if uint64(n) > uint64(c.Len()) {
		return 0, &Error{Offset: off, Key: key, Want: int(n), Have: c.Len()}
	}
	return int(n), nil
}

// Decode reads one record from c, which must use little-endian order.
func Decode(c *cursor.Cursor) (Record, error) {
	n, err := readLength(c, "")
	if err != nil {
		return Record{}, err
	}
	key, _ := c.Next(n)

	n, err = readLength(c, string(key))
	if err != nil {
		return Record{}, err
	}
	raw, _ := c.Next(n)

	return Record{Key: string(key), Value: decodeValue(string(key), raw)}, nil
}

// Append encodes r onto b. A value that would decode to something else,
// such as a Uint under a float key, is rejected with an error matching
// ErrKind.
func (r Record) Append(b []byte) ([]byte, error) {
	if r.Value == nil {
		return b, fmt.Errorf("dict: record %q has no value", r.Key)
	}
	if !encodable(r.Key, r.Value) {
		return b, fmt.Errorf("%w: %q holds %s", ErrKind, r.Key, r.Value.Kind())
	}
	v := r.Value.appendValue(nil)
	if uint64(len(v)) > math.MaxUint32 || uint64(len(r.Key)) > math.MaxUint32 {
		return b, fmt.Errorf("dict: record %q too large", r.Key)
	}
	b = binary.LittleEndian.AppendUint32(b, uint32(len(r.Key)))
	b = append(b, r.Key...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(v)))
	return append(b, v...), nil
}

// MarshalBinary encodes the record.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.Append(nil)
}

// Records is an ordered list of records. Order and duplicate keys are
// preserved exactly as decoded.
type Records []Record

// DecodeAll reads records until c is exhausted.
func DecodeAll(c *cursor.Cursor) (Records, error) {
	var rs Records
	for c.Len() > 0 {
		r, err := Decode(c)
		if err != nil {
			return rs, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// Append encodes every record onto b in order.
func (rs Records) Append(b []byte) ([]byte, error) {
	var err error
	for _, r := range rs {
		if b, err = r.Append(b); err != nil {
			return b, err
		}
	}
	return b, nil
}

// MarshalBinary encodes the records in order.
func (rs Records) MarshalBinary() ([]byte, error) {
	return rs.Append(nil)
}

// Get returns the value of the first record with the given key.
func (rs Records) Get(key string) (Value, bool) {
	for _, r := range rs {
		if r.Key == key {
			return r.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of the first record with the given key, or appends
// a new record. The value is checked against the key when encoded.
func (rs *Records) Set(key string, v Value) {
	for i, r := range *rs {
		if r.Key == key {
			(*rs)[i].Value = v
			return
		}
	}
	*rs = append(*rs, Record{Key: key, Value: v})
}

// Float returns the value of key if it decoded as a Float.
func (rs Records) Float(key string) (float32, bool) {
	v, ok := rs.Get(key)
	f, ok2 := v.(Float)
	return float32(f), ok && ok2
}

// Uint returns the value of key if it decoded as a Uint.
func (rs Records) Uint(key string) (uint32, bool) {
	v, ok := rs.Get(key)
	u, ok2 := v.(Uint)
	return uint32(u), ok && ok2
}

// Bool returns the value of key if it decoded as a Bool.
func (rs Records) Bool(key string) (bool, bool) {
	v, ok := rs.Get(key)
	b, ok2 := v.(Bool)
	return bool(b), ok && ok2
}

// Text returns the value of key if it decoded as Text.
func (rs Records) Text(key string) (string, bool) {
	v, ok := rs.Get(key)
	s, ok2 := v.(Text)
	return string(s), ok && ok2
}

// Color returns the value of key if it decoded as a Color.
func (rs Records) Color(key string) (Color, bool) {
	v, ok := rs.Get(key)
	c, ok2 := v.(Color)
	return c, ok && ok2
}

// Quat returns the value of key if it decoded as a Quat.
func (rs Records) Quat(key string) (Quat, bool) {
	v, ok := rs.Get(key)
	q, ok2 := v.(Quat)
	return q, ok && ok2
}

// Vec3 returns the value of key if it decoded as a Vec3.
func (rs Records) Vec3(key string) (Vec3, bool) {
	v, ok := rs.Get(key)
	x, ok2 := v.(Vec3)
	return x, ok && ok2
}

// Matrix returns the value of key if it decoded as a Matrix.
func (rs Records) Matrix(key string) (Matrix, bool) {
	v, ok := rs.Get(key)
	m, ok2 := v.(Matrix)
	return m, ok && ok2
}

// Untyped returns the keys of records kept as opaque bytes, in order.
func (rs Records) Untyped() []string {
	var keys []string
	for _, r := range rs {
		if !r.Typed() {
			keys = append(keys, r.Key)
		}
	}
	return keys
}
