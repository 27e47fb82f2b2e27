package gox

import (
	"encoding/binary"

	"github.com/bodgit/gox/atlas"
	"github.com/bodgit/gox/chunk"
	"github.com/bodgit/gox/cursor"
	"github.com/bodgit/gox/dict"
	"github.com/bodgit/gox/voxel"
)

// Chunk types with a typed payload.
const (
	TypeImage    = "IMG "
	TypeMaterial = "MATE"
	TypeCamera   = "CAMR"
	TypeLayer    = "LAYR"
	TypeAtlas    = "BL16"
)

// Payload is the decoded content of a chunk.
type Payload interface {
	// Tag returns the chunk type the payload is stored under.
	Tag() string
	MarshalBinary() ([]byte, error)
}

// Raw is a payload kept as opaque bytes, either because its type has no
// grammar or because the grammar rejected it.
type Raw struct {
	Type string
	Data []byte
}

func (r *Raw) Tag() string { return r.Type }

func (r *Raw) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), r.Data...), nil
}

// Image holds the image metadata records, such as the bounding box.
type Image struct {
	Records dict.Records
}

func (i *Image) Tag() string { return TypeImage }

func (i *Image) MarshalBinary() ([]byte, error) { return i.Records.MarshalBinary() }

// Box returns the image bounding box, if set.
func (i *Image) Box() (dict.Matrix, bool) { return i.Records.Matrix("box") }

// MaterialList holds the records of one MATE chunk.
type MaterialList struct {
	Records dict.Records
}

func (m *MaterialList) Tag() string { return TypeMaterial }

func (m *MaterialList) MarshalBinary() ([]byte, error) { return m.Records.MarshalBinary() }

// CameraList holds the records of one CAMR chunk.
type CameraList struct {
	Records dict.Records
}

func (c *CameraList) Tag() string { return TypeCamera }

func (c *CameraList) MarshalBinary() ([]byte, error) { return c.Records.MarshalBinary() }

const blockSize = 5 * 4

// Block places one atlas in a layer.
type Block struct {
	Index    int32
	X, Y, Z  int32
	Reserved uint32
}

// Origin returns the voxel coordinate of the block's first voxel.
func (b Block) Origin() voxel.Point {
	return voxel.Point{X: int(b.X), Y: int(b.Y), Z: int(b.Z)}
}

// Layer holds the block table and records of one LAYR chunk.
type Layer struct {
	Blocks  []Block
	Records dict.Records
}

func (l *Layer) Tag() string { return TypeLayer }

func (l *Layer) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 4+blockSize*len(l.Blocks))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(l.Blocks)))
	for _, blk := range l.Blocks {
		b = binary.LittleEndian.AppendUint32(b, uint32(blk.Index))
		b = binary.LittleEndian.AppendUint32(b, uint32(blk.X))
		b = binary.LittleEndian.AppendUint32(b, uint32(blk.Y))
		b = binary.LittleEndian.AppendUint32(b, uint32(blk.Z))
		b = binary.LittleEndian.AppendUint32(b, blk.Reserved)
	}
	return l.Records.Append(b)
}

// Atlas is the payload of a BL16 chunk.
type Atlas struct {
	*atlas.Atlas
}

func (a *Atlas) Tag() string { return TypeAtlas }

type recorder interface {
	records() dict.Records
}

func (i *Image) records() dict.Records        { return i.Records }
func (m *MaterialList) records() dict.Records { return m.Records }
func (c *CameraList) records() dict.Records   { return c.Records }
func (l *Layer) records() dict.Records        { return l.Records }

type grammar func(c *cursor.Cursor) (Payload, error)

var grammars = map[string]grammar{
	TypeImage:    decodeImage,
	TypeMaterial: decodeMaterials,
	TypeCamera:   decodeCameras,
	TypeLayer:    decodeLayer,
	TypeAtlas:    decodeAtlas,
}

func decodeImage(c *cursor.Cursor) (Payload, error) {
	rs, err := dict.DecodeAll(c)
	if err != nil {
		return nil, err
	}
	return &Image{Records: rs}, nil
}

func decodeMaterials(c *cursor.Cursor) (Payload, error) {
	rs, err := dict.DecodeAll(c)
	if err != nil {
		return nil, err
	}
	return &MaterialList{Records: rs}, nil
}

func decodeCameras(c *cursor.Cursor) (Payload, error) {
	rs, err := dict.DecodeAll(c)
	if err != nil {
		return nil, err
	}
	return &CameraList{Records: rs}, nil
}

func decodeLayer(c *cursor.Cursor) (Payload, error) {
	off := c.Offset()
	n, err := c.Uint32()
	if err != nil {
		return nil, &chunk.Error{Offset: off, Type: TypeLayer, Reason: "missing block count", Want: 4, Have: c.Len()}
	}
	if uint64(n)*blockSize > uint64(c.Len()) {
		return nil, &chunk.Error{Offset: off, Type: TypeLayer, Reason: "block table overruns payload", Want: int(n) * blockSize, Have: c.Len()}
	}

	l := new(Layer)
	if n > 0 {
		l.Blocks = make([]Block, n)
	}
	for i := range l.Blocks {
		b := &l.Blocks[i]
		b.Index, _ = c.Int32()
		b.X, _ = c.Int32()
		b.Y, _ = c.Int32()
		b.Z, _ = c.Int32()
		b.Reserved, _ = c.Uint32()
	}

	if l.Records, err = dict.DecodeAll(c); err != nil {
		return nil, err
	}

	return l, nil
}

func decodeAtlas(c *cursor.Cursor) (Payload, error) {
	b, _ := c.Next(c.Len())
	a, err := atlas.Parse(b)
	if err != nil {
		return nil, err
	}
	return &Atlas{a}, nil
}
