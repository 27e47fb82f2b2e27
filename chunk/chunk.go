/*
Package chunk implements the length-prefixed, CRC-trailed chunk envelope
shared by the .gox container and the raster stream embedded in its atlases.

Two layouts are supported. The container layout is a 4 byte type tag, a
little-endian 32-bit payload length, the payload and a little-endian 32-bit
CRC-32 of the payload. The raster layout is a big-endian 32-bit payload
length, the 4 byte type tag, the payload and a big-endian 32-bit CRC-32 of the
tag and payload.

Trailing codes are kept as read and never verified; Encode always writes a
freshly computed one.
*/
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/bodgit/gox/cursor"
)

// Layout selects the field order and byte order of the envelope.
type Layout int

const (
	// Container is the layout of top-level .gox chunks.
	Container Layout = iota
	// Raster is the layout of the chunks inside an embedded raster image.
	Raster
)

const (
	// TypeSize is the length of a chunk type tag.
	TypeSize = 4
	// Overhead is the number of envelope bytes around each payload.
	Overhead = TypeSize + 4 + 4
)

func (l Layout) order() binary.ByteOrder {
	if l == Raster {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (l Layout) String() string {
	if l == Raster {
		return "raster"
	}
	return "container"
}

// ErrMalformed is matched by every *Error.
var ErrMalformed = errors.New("chunk: malformed chunk")

// Error describes a chunk that could not be decoded.
type Error struct {
	Offset int
	Type   string
	Reason string
	Want   int
	Have   int
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("chunk: %s at offset %#x (want %d bytes, have %d)", e.Reason, e.Offset, e.Want, e.Have)
	}
	return fmt.Sprintf("chunk: %q %s at offset %#x (want %d bytes, have %d)", e.Type, e.Reason, e.Offset, e.Want, e.Have)
}

// Is reports whether target is ErrMalformed.
func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}

// Chunk is a single decoded envelope.
type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

// Decode reads one chunk from c using layout l. It returns io.EOF, and
// nothing else, when no bytes remain. The payload is copied so the returned
// chunk does not alias the cursor's buffer.
func Decode(c *cursor.Cursor, l Layout) (*Chunk, error) {
	start := c.Offset()
	if c.Len() == 0 {
		return nil, io.EOF
	}
	if c.Len() < TypeSize+4 {
		return nil, &Error{Offset: start, Reason: "truncated chunk header", Want: TypeSize + 4, Have: c.Len()}
	}

	order := l.order()
	header, _ := c.Next(TypeSize + 4)

	var typ string
	var length uint32
	switch l {
	case Raster:
		length = order.Uint32(header[:4])
		typ = string(header[4:])
	default:
		typ = string(header[:TypeSize])
		length = order.Uint32(header[TypeSize:])
	}

	if uint64(length) > uint64(c.Len()) {
		return nil, &Error{Offset: start, Type: typ, Reason: "truncated payload", Want: int(length), Have: c.Len()}
	}
	data, _ := c.Next(int(length))

	trailer, err := c.Next(4)
	if err != nil {
		return nil, &Error{Offset: start, Type: typ, Reason: "truncated trailer", Want: 4, Have: c.Len()}
	}

	return &Chunk{
		Type: typ,
		Data: append([]byte(nil), data...),
		CRC:  order.Uint32(trailer),
	}, nil
}

// DecodeAll reads chunks until the cursor is exhausted. On error the chunks
// decoded so far are returned alongside it.
func DecodeAll(c *cursor.Cursor, l Layout) ([]*Chunk, error) {
	var chunks []*Chunk
	for {
		ch, err := Decode(c, l)
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, ch)
	}
}

// Checksum returns the trailing code Encode writes for the given chunk.
func Checksum(l Layout, typ string, data []byte) uint32 {
	if l == Raster {
		crc := crc32.ChecksumIEEE([]byte(typ))
		return crc32.Update(crc, crc32.IEEETable, data)
	}
	return crc32.ChecksumIEEE(data)
}

func validate(typ string, data []byte) error {
	if len(typ) != TypeSize {
		return fmt.Errorf("chunk: type %q is not %d bytes", typ, TypeSize)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("chunk: %q payload too large", typ)
	}
	return nil
}

// Append encodes a chunk onto b and returns the extended slice.
func Append(b []byte, l Layout, typ string, data []byte) ([]byte, error) {
	if err := validate(typ, data); err != nil {
		return b, err
	}

	order := l.order()
	var tmp [4]byte

	order.PutUint32(tmp[:], uint32(len(data)))
	switch l {
	case Raster:
		b = append(b, tmp[:]...)
		b = append(b, typ...)
	default:
		b = append(b, typ...)
		b = append(b, tmp[:]...)
	}
	b = append(b, data...)

	order.PutUint32(tmp[:], Checksum(l, typ, data))
	return append(b, tmp[:]...), nil
}

// Encode writes a chunk to w.
func Encode(w io.Writer, l Layout, typ string, data []byte) error {
	b, err := Append(make([]byte, 0, Overhead+len(data)), l, typ, data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
