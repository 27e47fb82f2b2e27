/*
Package ply exports voxel maps as ASCII PLY meshes.

Each exposed voxel face is written as a quad over shared vertices that carry
an 8-bit RGB colour. The model stays in voxel space, with z up.
*/
package ply

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/bodgit/gox/glb"
	"github.com/bodgit/gox/voxel"
)

const header = `ply
format ascii 1.0
comment Generated from %s
element vertex %d
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
element face %d
property list uchar int vertex_index
end_header
`

func channel(f float32) uint8 {
	return uint8(math.Round(float64(f) * 255))
}

// Encode writes the surface of m to w.
func Encode(w io.Writer, m *voxel.Map) error {
	mesh := glb.Extract(m, glb.ZUp)
	vertices, index := mesh.Weld()

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, header, voxel.Generator, len(vertices), mesh.Faces())
	for _, v := range vertices {
		fmt.Fprintf(bw, "%g %g %g %d %d %d\n", v.Position[0], v.Position[1], v.Position[2], channel(v.Color[0]), channel(v.Color[1]), channel(v.Color[2]))
	}
	for i := 0; i < len(index); i += 4 {
		fmt.Fprintf(bw, "4 %d %d %d %d\n", index[i], index[i+1], index[i+2], index[i+3])
	}

	return bw.Flush()
}
