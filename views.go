package gox

import "github.com/bodgit/gox/dict"

// groupRecords splits rs into runs, starting a new run whenever a key
// repeats within the current one.
func groupRecords(rs dict.Records) []dict.Records {
	var groups []dict.Records
	var cur dict.Records
	seen := map[string]bool{}
	for _, r := range rs {
		if seen[r.Key] {
			groups = append(groups, cur)
			cur = nil
			seen = map[string]bool{}
		}
		seen[r.Key] = true
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// Material is one material's records.
type Material struct {
	dict.Records
}

func (m Material) Name() string {
	s, _ := m.Text("name")
	return s
}

func (m Material) Color() (dict.Color, bool) { return m.Records.Color("color") }

func (m Material) Metallic() (float32, bool) { return m.Float("metallic") }

func (m Material) Roughness() (float32, bool) { return m.Float("roughness") }

func (m Material) Emission() (float32, bool) { return m.Float("emission") }

// Camera is one camera's records.
type Camera struct {
	dict.Records
}

func (c Camera) Name() string {
	s, _ := c.Text("name")
	return s
}

func (c Camera) Dist() (float32, bool) { return c.Float("dist") }

func (c Camera) Rot() (dict.Quat, bool) { return c.Quat("rot") }

func (c Camera) Ofs() (dict.Vec3, bool) { return c.Vec3("ofs") }

func (c Camera) Ortho() bool {
	b, _ := c.Bool("ortho")
	return b
}

func (c Camera) Active() bool {
	b, _ := c.Bool("active")
	return b
}

// Name returns the layer name.
func (l *Layer) Name() string {
	s, _ := l.Records.Text("name")
	return s
}

// Visible reports the layer visibility. A layer without a visible record is
// visible.
func (l *Layer) Visible() bool {
	b, ok := l.Records.Bool("visible")
	return b || !ok
}

// Material returns the index of the layer's material, if any.
func (l *Layer) Material() (uint32, bool) { return l.Records.Uint("material") }

// ID returns the layer id.
func (l *Layer) ID() (uint32, bool) { return l.Records.Uint("id") }

// BaseID returns the id of the layer this one is cloned from.
func (l *Layer) BaseID() (uint32, bool) { return l.Records.Uint("base_id") }

// Matrix returns the layer transform, defaulting to the identity.
func (l *Layer) Matrix() dict.Matrix {
	if m, ok := l.Records.Matrix("mat"); ok {
		return m
	}
	return dict.Identity()
}

// Box returns the layer bounding box, if set.
func (l *Layer) Box() (dict.Matrix, bool) { return l.Records.Matrix("box") }

// Image returns the image metadata, or nil if there is none.
func (c *Container) Image() *Image {
	for _, ch := range c.Chunks {
		if i, ok := ch.Payload.(*Image); ok {
			return i
		}
	}
	return nil
}

// Materials returns every material in the order stored.
func (c *Container) Materials() []Material {
	var ms []Material
	for _, ch := range c.Chunks {
		if l, ok := ch.Payload.(*MaterialList); ok {
			for _, g := range groupRecords(l.Records) {
				ms = append(ms, Material{Records: g})
			}
		}
	}
	return ms
}

// Cameras returns every camera in the order stored.
func (c *Container) Cameras() []Camera {
	var cs []Camera
	for _, ch := range c.Chunks {
		if l, ok := ch.Payload.(*CameraList); ok {
			for _, g := range groupRecords(l.Records) {
				cs = append(cs, Camera{Records: g})
			}
		}
	}
	return cs
}

// Layers returns the layers in order.
func (c *Container) Layers() []*Layer {
	var ls []*Layer
	for _, ch := range c.Chunks {
		if l, ok := ch.Payload.(*Layer); ok {
			ls = append(ls, l)
		}
	}
	return ls
}

// Atlases returns one entry per BL16 chunk, indexed the way block references
// index them. An entry is nil when the chunk failed to parse.
func (c *Container) Atlases() []*Atlas {
	var as []*Atlas
	for _, ch := range c.Chunks {
		if ch.Type() != TypeAtlas {
			continue
		}
		a, _ := ch.Payload.(*Atlas)
		as = append(as, a)
	}
	return as
}
