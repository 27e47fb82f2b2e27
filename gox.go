/*
Package gox is a library for reading and writing the .gox voxel scene format.

A .gox file is an 8 byte header followed by a stream of chunks:

	"GOX " | u32 version | chunk*

Each chunk is a 4 byte type, a little-endian 32-bit payload length, the
payload and a 32-bit CRC. The payload of the IMG, MATE, CAMR and LAYR types is
a list of key/value records, LAYR payloads being preceded by a table of block
references. BL16 payloads are 64x64 PNG images, each packing one 16x16x16
block of voxels. Chunks of any other type are kept as opaque bytes.
*/
package gox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"

	"github.com/bodgit/gox/atlas"
	"github.com/bodgit/gox/chunk"
	"github.com/bodgit/gox/cursor"
)

const (
	// Magic identifies a .gox file.
	Magic = "GOX "
	// DefaultVersion is the version written by NewContainer.
	DefaultVersion = 2

	headerSize = 8
)

// Header is the fixed file header.
type Header struct {
	Version uint32
}

// Chunk is one decoded top-level chunk.
type Chunk struct {
	Payload Payload
	// CRC is the trailing code as read. It is not verified and is
	// recomputed when the chunk is encoded.
	CRC uint32
}

// Type returns the chunk type tag.
func (c *Chunk) Type() string {
	return c.Payload.Tag()
}

// Container is a decoded .gox file.
type Container struct {
	Header
	Chunks []*Chunk
}

// NewContainer returns an empty container with the default version.
func NewContainer() *Container {
	return &Container{
		Header: Header{Version: DefaultVersion},
	}
}

// Codec decodes containers and reconstructs their voxels.
type Codec struct {
	// Raster decodes atlas payloads into pixels. It defaults to atlas.PNG.
	Raster atlas.Decoder
	// Workers bounds the number of layers reconstructed concurrently.
	Workers int

	logger *log.Logger
}

// New returns a Codec that reports informational events to logger. A nil
// logger discards them.
func New(logger *log.Logger) *Codec {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Codec{
		Raster:  atlas.PNG,
		Workers: 4,
		logger:  logger,
	}
}

var std = New(nil)

// Decode decodes b using a Codec that discards log output.
func Decode(b []byte) (*Container, error) {
	return std.Decode(b)
}

// Decode decodes a whole container from b.
//
// A bad or truncated header returns a *FormatError and no container. A
// truncated chunk stops the scan; the chunks before it are returned along
// with the error. A chunk whose payload does not match its grammar is kept as
// a *Raw payload, reported as a *GrammarError and the scan continues. All
// errors other than a *FormatError are joined.
func (x *Codec) Decode(b []byte) (*Container, error) {
	magic := b[:min(len(b), len(Magic))]
	if string(magic) != Magic || len(b) < headerSize {
		return nil, &FormatError{Magic: string(magic), Length: len(b)}
	}

	c := cursor.New(b, binary.LittleEndian)
	_, _ = c.Next(len(Magic))
	version, _ := c.Uint32()

	container := &Container{
		Header: Header{Version: version},
	}

	var errs []error
	for {
		start := c.Offset()
		ch, err := chunk.Decode(c, chunk.Container)
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err)
			break
		}

		p, err := x.decodePayload(ch, start)
		if err != nil {
			x.logger.Printf("Keeping %q chunk at offset %#x as raw bytes: %v\n", ch.Type, start, err)
			errs = append(errs, &GrammarError{Offset: start, Type: ch.Type, Err: err})
			p = &Raw{Type: ch.Type, Data: ch.Data}
		}

		container.Chunks = append(container.Chunks, &Chunk{Payload: p, CRC: ch.CRC})
	}

	return container, errors.Join(errs...)
}

func (x *Codec) decodePayload(ch *chunk.Chunk, start int) (Payload, error) {
	decode, ok := grammars[ch.Type]
	if !ok {
		return &Raw{Type: ch.Type, Data: ch.Data}, nil
	}

	c := cursor.NewAt(ch.Data, start+chunk.TypeSize+4, binary.LittleEndian)
	p, err := decode(c)
	if err != nil {
		return nil, err
	}
	if c.Len() != 0 {
		return nil, &chunk.Error{Offset: c.Offset(), Type: ch.Type, Reason: "payload not consumed", Want: 0, Have: c.Len()}
	}

	if r, ok := p.(recorder); ok {
		for _, key := range r.records().Untyped() {
			x.logger.Printf("Keeping unknown key %q in %q chunk at offset %#x as raw bytes\n", key, ch.Type, start)
		}
	}

	return p, nil
}

// MarshalBinary encodes the whole container. Chunks are written in order
// with a freshly computed CRC.
func (c *Container) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, headerSize)
	b = append(b, Magic...)
	b = binary.LittleEndian.AppendUint32(b, c.Version)

	for _, ch := range c.Chunks {
		data, err := ch.Payload.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if b, err = chunk.Append(b, chunk.Container, ch.Type(), data); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Encode writes the container to w.
func Encode(w io.Writer, c *Container) error {
	b, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(b))
	return err
}
