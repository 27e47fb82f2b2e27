package gox

import (
	"fmt"

	"github.com/bodgit/gox/dict"
	"github.com/bodgit/gox/voxel"
)

func plainRecords(rs dict.Records) map[string]interface{} {
	m := make(map[string]interface{}, len(rs))
	for _, r := range rs {
		m[r.Key] = dict.Plain(r.Value)
	}
	return m
}

func plainVoxels(m *voxel.Map) []interface{} {
	points := m.Points()
	out := make([]interface{}, 0, len(points))
	for _, p := range points {
		c, _ := m.At(p)
		out = append(out, map[string]interface{}{
			"x":     p.X,
			"y":     p.Y,
			"z":     p.Z,
			"color": fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B),
		})
	}
	return out
}

// Export converts c to plain maps, slices and scalars suitable for any
// textual serialiser. voxels, if not nil, is the result of Codec.Voxels for
// c and adds a voxel list to each layer.
func Export(c *Container, voxels []LayerVoxels) map[string]interface{} {
	out := map[string]interface{}{
		"version": c.Version,
	}

	if img := c.Image(); img != nil {
		out["image"] = plainRecords(img.Records)
	}

	materials := []interface{}{}
	for _, m := range c.Materials() {
		materials = append(materials, plainRecords(m.Records))
	}
	out["materials"] = materials

	cameras := []interface{}{}
	for _, cam := range c.Cameras() {
		cameras = append(cameras, plainRecords(cam.Records))
	}
	out["cameras"] = cameras

	layers := []interface{}{}
	for i, l := range c.Layers() {
		layer := plainRecords(l.Records)

		blocks := make([]interface{}, 0, len(l.Blocks))
		for _, b := range l.Blocks {
			blocks = append(blocks, map[string]interface{}{
				"index": b.Index,
				"x":     b.X,
				"y":     b.Y,
				"z":     b.Z,
			})
		}
		layer["blocks"] = blocks

		if i < len(voxels) && voxels[i].Voxels != nil {
			layer["voxels"] = plainVoxels(voxels[i].Voxels)
		}

		layers = append(layers, layer)
	}
	out["layers"] = layers

	return out
}
