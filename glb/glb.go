/*
Package glb exports voxel maps as binary glTF.

Every voxel becomes a unit cube, but only faces that do not touch another
voxel are emitted. Colours are carried by the per-vertex COLOR_0 attribute
of a single primitive using one opaque material. Voxel space is z-up and is
rotated to the y-up glTF convention.
*/
package glb

import (
	"errors"

	"github.com/bodgit/gox/voxel"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrEmpty is returned for a map without voxels.
var ErrEmpty = errors.New("glb: no voxels")

// Mesh is the exposed surface of a voxel map.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	Colors    [][4]float32
	Indices   []uint32
}

// Faces returns the number of quads in the mesh.
func (m *Mesh) Faces() int {
	return len(m.Positions) / 4
}

// Vertex is a coloured mesh position.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
}

// Weld returns the distinct vertices of m in order of first use, and for
// every vertex of m its index into them.
func (m *Mesh) Weld() ([]Vertex, []int) {
	seen := make(map[Vertex]int)
	var vertices []Vertex
	index := make([]int, len(m.Positions))
	for i := range m.Positions {
		v := Vertex{m.Positions[i], m.Colors[i]}
		j, ok := seen[v]
		if !ok {
			j = len(vertices)
			seen[v] = j
			vertices = append(vertices, v)
		}
		index[i] = j
	}
	return vertices, index
}

type face struct {
	normal  voxel.Point
	corners [4]voxel.Point
}

// Corners are counter-clockwise when seen from outside the cube.
var faces = [...]face{
	{voxel.Point{X: 1}, [4]voxel.Point{{X: 1}, {X: 1, Y: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Z: 1}}},
	{voxel.Point{X: -1}, [4]voxel.Point{{}, {Z: 1}, {Y: 1, Z: 1}, {Y: 1}}},
	{voxel.Point{Y: 1}, [4]voxel.Point{{Y: 1}, {Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1}}},
	{voxel.Point{Y: -1}, [4]voxel.Point{{}, {X: 1}, {X: 1, Z: 1}, {Z: 1}}},
	{voxel.Point{Z: 1}, [4]voxel.Point{{Z: 1}, {X: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1, Z: 1}}},
	{voxel.Point{Z: -1}, [4]voxel.Point{{}, {Y: 1}, {X: 1, Y: 1}, {X: 1}}},
}

// Space maps voxel coordinates to mesh coordinates.
type Space func(voxel.Point) [3]float32

// YUp rotates voxel space so z points up the y axis, as glTF expects.
func YUp(p voxel.Point) [3]float32 {
	return [3]float32{float32(p.X), float32(p.Z), float32(-p.Y)}
}

// ZUp keeps voxel coordinates unchanged.
func ZUp(p voxel.Point) [3]float32 {
	return [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
}

// Surface builds the y-up mesh of the exposed faces of m.
func Surface(m *voxel.Map) *Mesh {
	return Extract(m, YUp)
}

// Extract builds the mesh of the exposed faces of m in the given space.
// Every face is a quad of four consecutive vertices.
func Extract(m *voxel.Map, space Space) *Mesh {
	mesh := new(Mesh)
	for _, p := range m.Points() {
		c, _ := m.At(p)
		rgba := [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}

		for _, f := range faces {
			if _, ok := m.At(p.Add(f.normal)); ok {
				continue
			}

			base := uint32(len(mesh.Positions))
			for _, corner := range f.corners {
				mesh.Positions = append(mesh.Positions, space(p.Add(corner)))
				mesh.Normals = append(mesh.Normals, space(f.normal))
				mesh.Colors = append(mesh.Colors, rgba)
			}
			mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
		}
	}
	return mesh
}

func setIndex[T ~int | ~uint32](p **T, i int) {
	v := T(i)
	*p = &v
}

func appendIndex[T ~int | ~uint32](s *[]T, i int) {
	*s = append(*s, T(i))
}

func setAttribute[M ~map[string]V, V ~int | ~uint32](m *M, key string, i int) {
	if *m == nil {
		*m = make(M)
	}
	(*m)[key] = V(i)
}

// Build returns a document holding the surface of m as a single mesh.
func Build(m *voxel.Map) (*gltf.Document, error) {
	if m.Len() == 0 {
		return nil, ErrEmpty
	}
	mesh := Surface(m)

	doc := gltf.NewDocument()
	doc.Asset.Generator = "gox"

	doc.Materials = []*gltf.Material{{
		Name: "voxels",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}}

	prim := new(gltf.Primitive)
	setAttribute(&prim.Attributes, gltf.POSITION, int(modeler.WritePosition(doc, mesh.Positions)))
	setAttribute(&prim.Attributes, gltf.NORMAL, int(modeler.WriteNormal(doc, mesh.Normals)))
	setAttribute(&prim.Attributes, gltf.COLOR_0, int(modeler.WriteColor(doc, mesh.Colors)))
	setIndex(&prim.Indices, int(modeler.WriteIndices(doc, mesh.Indices)))
	setIndex(&prim.Material, 0)

	doc.Meshes = []*gltf.Mesh{{Name: "voxels", Primitives: []*gltf.Primitive{prim}}}

	node := &gltf.Node{Name: "voxels"}
	setIndex(&node.Mesh, 0)
	doc.Nodes = []*gltf.Node{node}
	appendIndex(&doc.Scenes[0].Nodes, 0)

	return doc, nil
}

// Save writes the surface of m to path as binary glTF.
func Save(path string, m *voxel.Map) error {
	doc, err := Build(m)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, path)
}
