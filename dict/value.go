package dict

import (
	"encoding/binary"
	"math"
)

// Kind identifies the concrete type of a Value.
type Kind int

// Value kinds.
const (
	KindBytes Kind = iota
	KindFloat
	KindUint
	KindBool
	KindText
	KindColor
	KindQuat
	KindVec3
	KindMatrix
)

var kindNames = [...]string{
	KindBytes:  "bytes",
	KindFloat:  "float",
	KindUint:   "uint",
	KindBool:   "bool",
	KindText:   "text",
	KindColor:  "color",
	KindQuat:   "quat",
	KindVec3:   "vec3",
	KindMatrix: "matrix",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Value is the decoded value of a record. The set of implementations is
// closed; consumers switch on the concrete type.
type Value interface {
	Kind() Kind
	appendValue(b []byte) []byte
}

// Bytes is an opaque value, used for keys with no known type.
type Bytes []byte

// Float is a single precision float value.
type Float float32

// Uint is an unsigned 32-bit integer value.
type Uint uint32

// Bool is a boolean stored as a single byte.
type Bool bool

// Text is an ASCII string value.
type Text string

// Color is a linear RGBA color with each channel nominally in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Quat is a rotation quaternion.
type Quat [4]float32

// Vec3 is a three component vector.
type Vec3 [3]float32

// Matrix is a 4x4 matrix, indexed [row][column] over the raw float order.
type Matrix [4][4]float32

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

func (Bytes) Kind() Kind  { return KindBytes }
func (Float) Kind() Kind  { return KindFloat }
func (Uint) Kind() Kind   { return KindUint }
func (Bool) Kind() Kind   { return KindBool }
func (Text) Kind() Kind   { return KindText }
func (Color) Kind() Kind  { return KindColor }
func (Quat) Kind() Kind   { return KindQuat }
func (Vec3) Kind() Kind   { return KindVec3 }
func (Matrix) Kind() Kind { return KindMatrix }

func appendFloats(b []byte, f ...float32) []byte {
	for _, v := range f {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func (v Bytes) appendValue(b []byte) []byte { return append(b, v...) }
func (v Float) appendValue(b []byte) []byte { return appendFloats(b, float32(v)) }
func (v Uint) appendValue(b []byte) []byte  { return binary.LittleEndian.AppendUint32(b, uint32(v)) }
func (v Text) appendValue(b []byte) []byte  { return append(b, v...) }
func (v Color) appendValue(b []byte) []byte { return appendFloats(b, v.R, v.G, v.B, v.A) }
func (v Quat) appendValue(b []byte) []byte  { return appendFloats(b, v[:]...) }
func (v Vec3) appendValue(b []byte) []byte  { return appendFloats(b, v[:]...) }

func (v Bool) appendValue(b []byte) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func (v Matrix) appendValue(b []byte) []byte {
	for _, row := range v {
		b = appendFloats(b, row[:]...)
	}
	return b
}

func floats(b []byte, n int) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}

// decoder converts the raw bytes of a known key. size is the exact number
// of bytes the type occupies, zero meaning any length.
type decoder struct {
	kind   Kind
	size   int
	decode func(b []byte) Value
}

var (
	floatDecoder = decoder{KindFloat, 4, func(b []byte) Value {
		return Float(floats(b, 1)[0])
	}}
	uintDecoder = decoder{KindUint, 4, func(b []byte) Value {
		return Uint(binary.LittleEndian.Uint32(b))
	}}
	boolDecoder = decoder{KindBool, 1, func(b []byte) Value {
		return Bool(b[0] != 0)
	}}
	textDecoder = decoder{KindText, 0, func(b []byte) Value {
		return Text(b)
	}}
	colorDecoder = decoder{KindColor, 16, func(b []byte) Value {
		f := floats(b, 4)
		return Color{f[0], f[1], f[2], f[3]}
	}}
	quatDecoder = decoder{KindQuat, 16, func(b []byte) Value {
		var q Quat
		copy(q[:], floats(b, 4))
		return q
	}}
	vec3Decoder = decoder{KindVec3, 12, func(b []byte) Value {
		var v Vec3
		copy(v[:], floats(b, 3))
		return v
	}}
	matrixDecoder = decoder{KindMatrix, 64, func(b []byte) Value {
		var m Matrix
		f := floats(b, 16)
		for i := range m {
			copy(m[i][:], f[i*4:])
		}
		return m
	}}
)

var table = map[string]decoder{
	"dist":      floatDecoder,
	"metallic":  floatDecoder,
	"roughness": floatDecoder,
	"emission":  floatDecoder,
	"ortho":     boolDecoder,
	"visible":   boolDecoder,
	"active":    boolDecoder,
	"base_id":   uintDecoder,
	"material":  uintDecoder,
	"id":        uintDecoder,
	"color":     colorDecoder,
	"name":      textDecoder,
	"rot":       quatDecoder,
	"ofs":       vec3Decoder,
	"mat":       matrixDecoder,
	"box":       matrixDecoder,
}

// Known reports whether key has a typed decoding, and of which kind.
func Known(key string) (Kind, bool) {
	d, ok := table[key]
	return d.kind, ok
}

func zero(k Kind) Value {
	switch k {
	case KindFloat:
		return Float(0)
	case KindUint:
		return Uint(0)
	case KindBool:
		return Bool(false)
	case KindText:
		return Text("")
	case KindColor:
		return Color{}
	case KindQuat:
		return Quat{}
	case KindVec3:
		return Vec3{}
	case KindMatrix:
		return Matrix{}
	}
	return Bytes{}
}

// encodable reports whether v written under key decodes back to v. A known
// key takes values of its own kind, or Bytes of a length its kind would not
// decode; any other key takes only Bytes.
func encodable(key string, v Value) bool {
	d, ok := table[key]
	if !ok {
		return v.Kind() == KindBytes
	}
	if v.Kind() == d.kind {
		return true
	}
	b, ok := v.(Bytes)
	return ok && len(b) != 0 && d.size != 0 && len(b) != d.size
}

// decodeValue applies the key table to raw. An empty value yields the zero
// value of the key's kind. A known key whose length does not match its kind
// is kept as Bytes.
func decodeValue(key string, raw []byte) Value {
	d, ok := table[key]
	if !ok || (len(raw) != 0 && d.size != 0 && len(raw) != d.size) {
		return Bytes(append([]byte{}, raw...))
	}
	if len(raw) == 0 {
		return zero(d.kind)
	}
	return d.decode(raw)
}

// Plain converts v to plain scalars and slices for textual serialisers.
func Plain(v Value) interface{} {
	switch v := v.(type) {
	case Float:
		return float32(v)
	case Uint:
		return uint32(v)
	case Bool:
		return bool(v)
	case Text:
		return string(v)
	case Color:
		return []float32{v.R, v.G, v.B, v.A}
	case Quat:
		return v[:]
	case Vec3:
		return v[:]
	case Matrix:
		rows := make([][]float32, len(v))
		for i := range v {
			rows[i] = append([]float32(nil), v[i][:]...)
		}
		return rows
	case Bytes:
		return []byte(v)
	}
	return nil
}
