/*
Package voxel implements a sparse voxel map and the mapping between 16 by 16
by 16 voxel blocks and their 64 by 64 pixel atlases.

An atlas stores a block row-major: pixel (x, y) has the linear index
pos = x + 64*y, and that index addresses the block-local voxel

	z = pos / 256
	y = (pos % 256) / 16
	x = (pos % 256) % 16

so each run of four atlas rows holds one 16 by 16 slice of the block. Pixels
with zero alpha are empty voxels.
*/
package voxel

import (
	"image"
	"image/color"
	"sort"

	"github.com/bodgit/gox/atlas"
)

const (
	// BlockSize is the edge length of a block in voxels.
	BlockSize = 16

	sliceArea = BlockSize * BlockSize
)

// Point is an integer voxel coordinate.
type Point struct {
	X, Y, Z int
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

func less(a, b Point) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// Locate returns the block-local voxel stored at atlas pixel (x, y).
func Locate(x, y int) Point {
	pos := x + y*atlas.Size
	res := pos % sliceArea
	return Point{
		X: res % BlockSize,
		Y: res / BlockSize,
		Z: pos / sliceArea,
	}
}

// Pixel returns the atlas pixel holding block-local voxel p; it is the
// inverse of Locate.
func Pixel(p Point) (int, int) {
	pos := p.Z*sliceArea + p.Y*BlockSize + p.X
	return pos % atlas.Size, pos / atlas.Size
}

// Map is a sparse mapping of voxel coordinates to colors. Absent
// coordinates are empty. The zero value is not usable; use New.
type Map struct {
	voxels map[Point]color.NRGBA
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		voxels: make(map[Point]color.NRGBA),
	}
}

// Len returns the number of voxels.
func (m *Map) Len() int {
	return len(m.voxels)
}

// Set stores c at p, replacing any existing voxel. A colour with zero alpha
// is empty space, so setting one removes the voxel at p.
func (m *Map) Set(p Point, c color.NRGBA) {
	if c.A == 0 {
		delete(m.voxels, p)
		return
	}
	m.voxels[p] = c
}

// Merge copies every voxel of src into m, replacing voxels of m at the same
// coordinates.
func (m *Map) Merge(src *Map) {
	for p, c := range src.voxels {
		m.voxels[p] = c
	}
}

// At returns the voxel at p.
func (m *Map) At(p Point) (color.NRGBA, bool) {
	c, ok := m.voxels[p]
	return c, ok
}

// Delete removes the voxel at p.
func (m *Map) Delete(p Point) {
	delete(m.voxels, p)
}

// Points returns every occupied coordinate ordered by z, then y, then x.
func (m *Map) Points() []Point {
	points := make([]Point, 0, len(m.voxels))
	for p := range m.voxels {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return less(points[i], points[j]) })
	return points
}

// Bounds returns the inclusive minimum and maximum occupied coordinates.
// ok is false for an empty map.
func (m *Map) Bounds() (lo, hi Point, ok bool) {
	for p := range m.voxels {
		if !ok {
			lo, hi, ok = p, p, true
			continue
		}
		lo = Point{minInt(lo.X, p.X), minInt(lo.Y, p.Y), minInt(lo.Z, p.Z)}
		hi = Point{maxInt(hi.X, p.X), maxInt(hi.Y, p.Y), maxInt(hi.Z, p.Z)}
	}
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// AddBlock writes the non-transparent pixels of the atlas img, a block placed
// at origin, into the map and returns how many voxels were written. Existing
// voxels at the same coordinates are overwritten. An atlas that is not 64 by
// 64 pixels is rejected with an error matching atlas.ErrShape and nothing is
// written.
func (m *Map) AddBlock(img image.Image, origin Point) (int, error) {
	b := img.Bounds()
	if b.Dx() != atlas.Size || b.Dy() != atlas.Size {
		return 0, &atlas.ShapeError{Width: b.Dx(), Height: b.Dy(), BitDepth: 8, ColorType: 6}
	}

	var n int
	for y := 0; y < atlas.Size; y++ {
		for x := 0; x < atlas.Size; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			m.voxels[origin.Add(Locate(x, y))] = c
			n++
		}
	}
	return n, nil
}

func floorBlock(v int) int {
	r := v % BlockSize
	if r < 0 {
		r += BlockSize
	}
	return v - r
}

// Block returns the origin of the block containing p.
func Block(p Point) Point {
	return Point{floorBlock(p.X), floorBlock(p.Y), floorBlock(p.Z)}
}

// Blocks returns the origins of every block holding at least one voxel,
// ordered by z, then y, then x.
func (m *Map) Blocks() []Point {
	seen := make(map[Point]struct{})
	for p := range m.voxels {
		seen[Block(p)] = struct{}{}
	}
	blocks := make([]Point, 0, len(seen))
	for p := range seen {
		blocks = append(blocks, p)
	}
	sort.Slice(blocks, func(i, j int) bool { return less(blocks[i], blocks[j]) })
	return blocks
}

// Atlas packs the block at origin into a 64 by 64 atlas. Empty voxels are
// fully transparent.
func (m *Map) Atlas(origin Point) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, atlas.Size, atlas.Size))
	for z := 0; z < BlockSize; z++ {
		for y := 0; y < BlockSize; y++ {
			for x := 0; x < BlockSize; x++ {
				local := Point{x, y, z}
				if c, ok := m.voxels[origin.Add(local)]; ok {
					px, py := Pixel(local)
					img.SetNRGBA(px, py, c)
				}
			}
		}
	}
	return img
}
