package voxel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
)

const recordSize = 3*4 + 4

type record struct {
	X, Y, Z    int32
	R, G, B, A uint8
}

// MarshalBinary encodes the map as a little-endian voxel count followed by
// one 16 byte record per voxel: x, y, z as int32 then r, g, b, a, in the
// order returned by Points.
func (m *Map) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	b.Grow(4 + recordSize*len(m.voxels))

	if err := binary.Write(b, binary.LittleEndian, uint32(len(m.voxels))); err != nil {
		return nil, err
	}

	for _, p := range m.Points() {
		c := m.voxels[p]
		r := record{int32(p.X), int32(p.Y), int32(p.Z), c.R, c.G, c.B, c.A}
		if err := binary.Write(b, binary.LittleEndian, &r); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes a map written by MarshalBinary, replacing the
// current contents.
func (m *Map) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return err
	}
	if uint64(r.Len()) != uint64(n)*recordSize {
		return errors.New("voxel: voxel count does not match data length")
	}

	m.voxels = make(map[Point]color.NRGBA, n)
	for i := uint32(0); i < n; i++ {
		var v record
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return err
		}
		m.voxels[Point{int(v.X), int(v.Y), int(v.Z)}] = color.NRGBA{v.R, v.G, v.B, v.A}
	}

	return nil
}
