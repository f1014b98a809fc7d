package sdfx

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/deadsy/sdfx/render"

	"github.com/nadzzz/lathe/internal/geometry"
)

// triangle is one mesh facet in tracked coordinates.
type triangle [3]geometry.Vec3

// tessellate renders every solid of the shape to triangles via marching
// cubes. Degenerate solids (no SDF) contribute nothing.
func (k *Kernel) tessellate(sh *shape, cells int) []triangle {
	if cells <= 0 {
		cells = k.meshCells
	}
	var out []triangle
	for _, so := range sh.solids {
		if so.sdf == nil {
			continue
		}
		tris := render.ToTriangles(so.sdf, render.NewMarchingCubesUniform(cells))
		for _, tri := range tris {
			var t triangle
			for j := 0; j < 3; j++ {
				v := tri[j]
				t[j] = geometry.Vec3{X: v.X, Y: v.Y, Z: v.Z}
			}
			out = append(out, t)
		}
	}
	return out
}

// cellsForDeflection maps a chordal deflection to a marching cubes cell
// count: roughly one cell per deflection unit across the largest extent,
// clamped to keep render time bounded.
func (k *Kernel) cellsForDeflection(sh *shape, deflection float64) int {
	if deflection <= 0 {
		return k.meshCells
	}
	bb := sh.BoundingBox()
	extent := math.Max(bb.Width(), math.Max(bb.Depth(), bb.Height()))
	if extent <= 0 {
		return k.meshCells
	}
	cells := int(math.Round(extent / deflection))
	if cells < 32 {
		cells = 32
	}
	if cells > 256 {
		cells = 256
	}
	return cells
}

// MassProperties computes volume and surface area from the tessellated
// mesh: signed tetrahedron volumes (divergence theorem) and triangle areas.
func (k *Kernel) MassProperties(s geometry.Shape) (geometry.MassProperties, error) {
	sh, err := unwrap(s)
	if err != nil {
		return geometry.MassProperties{}, err
	}
	tris := k.tessellate(sh, 0)
	return meshMassProperties(tris), nil
}

func meshMassProperties(tris []triangle) geometry.MassProperties {
	var volume, area float64
	for _, t := range tris {
		cx := cross(sub(t[1], t[0]), sub(t[2], t[0]))
		area += 0.5 * length(cx)
		volume += dot(t[0], cross(t[1], t[2])) / 6.0
	}
	return geometry.MassProperties{Volume: math.Abs(volume), Area: area}
}

// MeshExport tessellates the shape and writes a binary STL file. An empty
// shape produces a valid zero-triangle STL so downstream viewers can still
// load it.
func (k *Kernel) MeshExport(s geometry.Shape, path string, deflection float64) error {
	sh, err := unwrap(s)
	if err != nil {
		return err
	}
	tris := k.tessellate(sh, k.cellsForDeflection(sh, deflection))
	return writeBinarySTL(path, tris)
}

func writeBinarySTL(path string, tris []triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stl: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var header [80]byte
	copy(header[:], "lathe binary stl")
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing stl header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tris))); err != nil {
		return fmt.Errorf("writing stl count: %w", err)
	}
	for _, t := range tris {
		n := normalize(cross(sub(t[1], t[0]), sub(t[2], t[0])))
		rec := [12]float32{
			float32(n.X), float32(n.Y), float32(n.Z),
			float32(t[0].X), float32(t[0].Y), float32(t[0].Z),
			float32(t[1].X), float32(t[1].Y), float32(t[1].Z),
			float32(t[2].X), float32(t[2].Y), float32(t[2].Z),
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("writing stl facet: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("writing stl facet: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing stl: %w", err)
	}
	return nil
}

func sub(a, b geometry.Vec3) geometry.Vec3 {
	return geometry.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func cross(a, b geometry.Vec3) geometry.Vec3 {
	return geometry.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(v geometry.Vec3) float64 {
	return math.Sqrt(dot(v, v))
}
