/*
Package obj exports voxel maps as Wavefront OBJ meshes.

Each exposed voxel face is written as a quad. Vertices carry their colour as
three extra components after the position, which most OBJ readers accept as
per-vertex colour. Identical vertices and normals are written once and the
model stays in voxel space, with z up.
*/
package obj

import (
	"bufio"
	"fmt"
	"io"

	"github.com/bodgit/gox/glb"
	"github.com/bodgit/gox/voxel"
)

// Encode writes the surface of m to w.
func Encode(w io.Writer, m *voxel.Map) error {
	mesh := glb.Extract(m, glb.ZUp)
	vertices, index := mesh.Weld()

	normalIndex := make(map[[3]float32]int)
	var normals [][3]float32
	for _, n := range mesh.Normals {
		if _, ok := normalIndex[n]; !ok {
			normalIndex[n] = len(normals)
			normals = append(normals, n)
		}
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n", voxel.Generator)
	for _, v := range vertices {
		fmt.Fprintf(bw, "v %g %g %g %f %f %f\n", v.Position[0], v.Position[1], v.Position[2], v.Color[0], v.Color[1], v.Color[2])
	}
	for _, n := range normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}

	// OBJ indices start at one
	for i := 0; i < len(index); i += 4 {
		fmt.Fprint(bw, "f")
		for j := i; j < i+4; j++ {
			fmt.Fprintf(bw, " %d//%d", index[j]+1, normalIndex[mesh.Normals[j]]+1)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
