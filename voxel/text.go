package voxel

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// TextAlpha is the lowest alpha a voxel needs to be written as text.
const TextAlpha = 127

// Generator names the writer in the first comment line of text output.
var Generator = "Goxel"

// WriteText writes the map in the plain text voxel format: comment lines
// starting with '#' followed by one "X Y Z RRGGBB" line per voxel, ordered
// by z, then y, then x. Alpha is not stored and voxels more transparent
// than TextAlpha are left out.
func WriteText(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "# %s\n# One line per voxel\n# X Y Z RRGGBB\n", Generator); err != nil {
		return err
	}

	for _, p := range m.Points() {
		c := m.voxels[p]
		if c.A < TextAlpha {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d %d %d %02x%02x%02x\n", p.X, p.Y, p.Z, c.R, c.G, c.B); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadText parses the plain text voxel format. Blank lines and lines
// starting with '#' are ignored; every voxel is fully opaque.
func ReadText(r io.Reader) (*Map, error) {
	m := New()
	s := bufio.NewScanner(r)

	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("voxel: line %d: want 4 fields, got %d", line, len(fields))
		}

		var xyz [3]int
		for i := range xyz {
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return nil, fmt.Errorf("voxel: line %d: %w", line, err)
			}
			xyz[i] = v
		}

		rgb, err := hex.DecodeString(fields[3])
		if err != nil || len(rgb) != 3 {
			return nil, fmt.Errorf("voxel: line %d: bad color %q", line, fields[3])
		}

		m.Set(Point{xyz[0], xyz[1], xyz[2]}, color.NRGBA{rgb[0], rgb[1], rgb[2], 0xff})
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return m, nil
}
