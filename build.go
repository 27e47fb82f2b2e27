package gox

import (
	"bytes"

	"github.com/bodgit/gox/atlas"
	"github.com/bodgit/gox/dict"
	"github.com/bodgit/gox/voxel"
	"github.com/cespare/xxhash/v2"
)

func (c *Container) nextLayerID() uint32 {
	var id uint32
	for _, l := range c.Layers() {
		if v, ok := l.ID(); ok && v >= id {
			id = v + 1
		}
	}
	return id
}

// AddLayer packs m into atlases and appends them to c, followed by a layer
// referencing them. Blocks whose atlas is byte-identical to one already in c
// reference the existing atlas.
func (c *Container) AddLayer(name string, m *voxel.Map) (*Layer, error) {
	index := map[uint64]int32{}
	for i, a := range c.Atlases() {
		if a != nil {
			index[xxhash.Sum64(a.Data)] = int32(i)
		}
	}
	next := int32(len(c.Atlases()))

	layer := new(Layer)
	for _, origin := range m.Blocks() {
		var buf bytes.Buffer
		if err := atlas.Encode(&buf, m.Atlas(origin)); err != nil {
			return nil, err
		}

		digest := xxhash.Sum64(buf.Bytes())
		i, ok := index[digest]
		if !ok {
			a, err := atlas.Parse(buf.Bytes())
			if err != nil {
				return nil, err
			}
			c.Chunks = append(c.Chunks, &Chunk{Payload: &Atlas{a}})
			i = next
			index[digest] = i
			next++
		}

		layer.Blocks = append(layer.Blocks, Block{
			Index: i,
			X:     int32(origin.X),
			Y:     int32(origin.Y),
			Z:     int32(origin.Z),
		})
	}

	layer.Records.Set("name", dict.Text(name))
	layer.Records.Set("visible", dict.Bool(true))
	layer.Records.Set("id", dict.Uint(c.nextLayerID()))
	layer.Records.Set("mat", dict.Identity())

	c.Chunks = append(c.Chunks, &Chunk{Payload: layer})

	return layer, nil
}
