package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/nadzzz/lathe/internal/geometry"
)

// Box creates a single-solid shape: an axis-aligned box centered at the
// origin, one shell of six planar faces.
func Box(x, y, z float64) geometry.Shape {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	faces := make([]faceMeta, 6)
	for i := range faces {
		faces[i] = faceMeta{kind: geometry.SurfacePlane}
	}
	return &shape{solids: []solid{{
		sdf: s,
		bounds: geometry.Box{
			Min: geometry.Vec3{X: -x / 2, Y: -y / 2, Z: -z / 2},
			Max: geometry.Vec3{X: x / 2, Y: y / 2, Z: z / 2},
		},
		shells: []shellMeta{{faces: faces}},
	}}}
}

// Cylinder creates a single-solid shape: a cylinder centered at the origin
// with its axis along Z. The lateral cylindrical face is enumerated first,
// followed by the two planar caps.
func Cylinder(height, radius float64) geometry.Shape {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	faces := []faceMeta{
		{kind: geometry.SurfaceCylinder, cyl: &cylMeta{
			radius: radius,
			axis:   geometry.Vec3{Z: 1},
			center: geometry.Vec3{},
		}},
		{kind: geometry.SurfacePlane},
		{kind: geometry.SurfacePlane},
	}
	return &shape{solids: []solid{{
		sdf: s,
		bounds: geometry.Box{
			Min: geometry.Vec3{X: -radius, Y: -radius, Z: -height / 2},
			Max: geometry.Vec3{X: radius, Y: radius, Z: height / 2},
		},
		shells: []shellMeta{{faces: faces}},
	}}}
}

// Empty returns a shape with zero solids.
func Empty() geometry.Shape {
	return &shape{}
}

// Compound merges the solids of several shapes into one compound shape, in
// argument order. All inputs must come from this kernel.
func Compound(shapes ...geometry.Shape) (geometry.Shape, error) {
	out := &shape{}
	for _, s := range shapes {
		sh, err := unwrap(s)
		if err != nil {
			return nil, err
		}
		out.solids = append(out.solids, sh.solids...)
	}
	return out, nil
}
