// Package sdfx implements the geometry.Kernel interface using the
// github.com/deadsy/sdfx signed-distance-field CAD library.
//
// Shapes carry two layers: an SDF per solid for meshing and export, and a
// tracked analytic topology (shells, faces, cylindrical surfaces) that is
// updated exactly under every transform. Feature enumeration and bounding
// boxes come from the tracked layer, so they stay deterministic regardless
// of tessellation settings.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/nadzzz/lathe/internal/geometry"
)

// Compile-time interface checks.
var (
	_ geometry.Kernel = (*Kernel)(nil)
	_ geometry.Shape  = (*shape)(nil)
)

// defaultMeshCells controls marching cubes resolution when no deflection
// is given.
const defaultMeshCells = 128

// Kernel implements geometry.Kernel using sdfx.
type Kernel struct {
	meshCells int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithMeshCells overrides the default marching cubes cell count.
func WithMeshCells(cells int) Option {
	return func(k *Kernel) {
		if cells > 0 {
			k.meshCells = cells
		}
	}
}

// New returns a new sdfx-backed kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{meshCells: defaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// cylMeta is the tracked state of one cylindrical face.
type cylMeta struct {
	radius float64
	axis   geometry.Vec3
	center geometry.Vec3
}

// faceMeta is the tracked state of one face.
type faceMeta struct {
	kind geometry.SurfaceKind
	cyl  *cylMeta // non-nil iff kind == SurfaceCylinder
}

type shellMeta struct {
	faces []faceMeta
}

// solid is one body: its SDF (nil for degenerate bodies) plus tracked
// bounds and topology.
type solid struct {
	sdf    sdf.SDF3
	bounds geometry.Box
	shells []shellMeta
}

// shape is an immutable compound of solids. Kernel operations never mutate
// a shape in place; they build a replacement.
type shape struct {
	solids []solid
}

func unwrap(s geometry.Shape) (*shape, error) {
	sh, ok := s.(*shape)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign shape type %T", s)
	}
	return sh, nil
}

// BoundingBox returns the union of all solid bounding boxes.
func (s *shape) BoundingBox() geometry.Box {
	var box geometry.Box
	first := true
	for _, so := range s.solids {
		if so.bounds.IsVoid() {
			continue
		}
		if first {
			box = so.bounds
			first = false
			continue
		}
		box.Min.X = math.Min(box.Min.X, so.bounds.Min.X)
		box.Min.Y = math.Min(box.Min.Y, so.bounds.Min.Y)
		box.Min.Z = math.Min(box.Min.Z, so.bounds.Min.Z)
		box.Max.X = math.Max(box.Max.X, so.bounds.Max.X)
		box.Max.Y = math.Max(box.Max.Y, so.bounds.Max.Y)
		box.Max.Z = math.Max(box.Max.Z, so.bounds.Max.Z)
	}
	return box
}

// Topology returns the structural snapshot in enumeration order.
func (s *shape) Topology() geometry.Topology {
	t := geometry.Topology{Solids: make([]geometry.SolidTopology, len(s.solids))}
	for i, so := range s.solids {
		st := geometry.SolidTopology{Shells: make([]geometry.ShellTopology, len(so.shells))}
		for j, sh := range so.shells {
			sht := geometry.ShellTopology{Faces: make([]geometry.FaceTopology, len(sh.faces))}
			for l, f := range sh.faces {
				sht.Faces[l] = geometry.FaceTopology{Kind: f.kind}
			}
			st.Shells[j] = sht
		}
		t.Solids[i] = st
	}
	return t
}

// Cylinders enumerates cylindrical faces in solid/shell/face order.
func (s *shape) Cylinders() []geometry.CylinderFace {
	var out []geometry.CylinderFace
	for i, so := range s.solids {
		for j, sh := range so.shells {
			for l, f := range sh.faces {
				if f.kind != geometry.SurfaceCylinder || f.cyl == nil {
					continue
				}
				out = append(out, geometry.CylinderFace{
					Ref:    geometry.FaceRef{Solid: i, Shell: j, Face: l},
					Radius: f.cyl.radius,
					Axis:   f.cyl.axis,
					Center: f.cyl.center,
				})
			}
		}
	}
	return out
}

// pointFn maps a model-space point, dirFn a direction (not normalized on
// input), radiusFn a cylinder radius given its tracked state.
type (
	pointFn  func(geometry.Vec3) geometry.Vec3
	dirFn    func(geometry.Vec3) geometry.Vec3
	radiusFn func(cylMeta) float64
)

// transformed builds the replacement shape for an affine transform. The
// matrix is applied to each solid's SDF, the callbacks keep the tracked
// metadata in step with it.
func (s *shape) transformed(m sdf.M44, fp pointFn, fd dirFn, fr radiusFn) *shape {
	out := &shape{solids: make([]solid, len(s.solids))}
	for i, so := range s.solids {
		ns := solid{bounds: transformBox(so.bounds, fp)}
		if so.sdf != nil {
			ns.sdf = sdf.Transform3D(so.sdf, m)
		}
		ns.shells = make([]shellMeta, len(so.shells))
		for j, sh := range so.shells {
			faces := make([]faceMeta, len(sh.faces))
			for l, f := range sh.faces {
				nf := faceMeta{kind: f.kind}
				if f.cyl != nil {
					nf.cyl = &cylMeta{
						radius: fr(*f.cyl),
						axis:   normalize(fd(f.cyl.axis)),
						center: fp(f.cyl.center),
					}
				}
				faces[l] = nf
			}
			ns.shells[j] = shellMeta{faces: faces}
		}
		out.solids[i] = ns
	}
	return out
}

// Scale uniformly scales about the origin.
func (k *Kernel) Scale(s geometry.Shape, factor float64) (geometry.Shape, error) {
	if math.Abs(factor) < geometry.ZeroTolerance {
		return nil, fmt.Errorf("scale factor must be non-zero: %w", geometry.ErrInvalidParameter)
	}
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	m := sdf.Scale3d(v3.Vec{X: factor, Y: factor, Z: factor})
	fp := func(p geometry.Vec3) geometry.Vec3 {
		return geometry.Vec3{X: p.X * factor, Y: p.Y * factor, Z: p.Z * factor}
	}
	fr := func(c cylMeta) float64 { return c.radius * math.Abs(factor) }
	return sh.transformed(m, fp, fp, fr), nil
}

// Translate moves the shape by (dx, dy, dz).
func (k *Kernel) Translate(s geometry.Shape, dx, dy, dz float64) (geometry.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	m := sdf.Translate3d(v3.Vec{X: dx, Y: dy, Z: dz})
	fp := func(p geometry.Vec3) geometry.Vec3 {
		return geometry.Vec3{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
	}
	fd := func(d geometry.Vec3) geometry.Vec3 { return d }
	fr := func(c cylMeta) float64 { return c.radius }
	return sh.transformed(m, fp, fd, fr), nil
}

// Rotate rotates the shape about a global axis through the origin.
func (k *Kernel) Rotate(s geometry.Shape, axis geometry.Axis, angleDegrees float64) (geometry.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	rad := angleDegrees * math.Pi / 180.0
	var m sdf.M44
	var rot func(geometry.Vec3) geometry.Vec3
	sin, cos := math.Sin(rad), math.Cos(rad)
	switch axis {
	case geometry.AxisX:
		m = sdf.RotateX(rad)
		rot = func(p geometry.Vec3) geometry.Vec3 {
			return geometry.Vec3{X: p.X, Y: p.Y*cos - p.Z*sin, Z: p.Y*sin + p.Z*cos}
		}
	case geometry.AxisY:
		m = sdf.RotateY(rad)
		rot = func(p geometry.Vec3) geometry.Vec3 {
			return geometry.Vec3{X: p.X*cos + p.Z*sin, Y: p.Y, Z: -p.X*sin + p.Z*cos}
		}
	default:
		m = sdf.RotateZ(rad)
		rot = func(p geometry.Vec3) geometry.Vec3 {
			return geometry.Vec3{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos, Z: p.Z}
		}
	}
	fr := func(c cylMeta) float64 { return c.radius }
	return sh.transformed(m, rot, rot, fr), nil
}

// ScaleNonUniform applies per-axis scale factors about the origin.
func (k *Kernel) ScaleNonUniform(s geometry.Shape, fx, fy, fz float64) (geometry.Shape, error) {
	if math.Abs(fx) < geometry.ZeroTolerance ||
		math.Abs(fy) < geometry.ZeroTolerance ||
		math.Abs(fz) < geometry.ZeroTolerance {
		return nil, fmt.Errorf("scale factors must be non-zero: %w", geometry.ErrInvalidParameter)
	}
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	m := sdf.Scale3d(v3.Vec{X: fx, Y: fy, Z: fz})
	fp := func(p geometry.Vec3) geometry.Vec3 {
		return geometry.Vec3{X: p.X * fx, Y: p.Y * fy, Z: p.Z * fz}
	}
	// A cylinder is only preserved exactly when the two factors orthogonal
	// to its axis agree; otherwise the tracked radius is the mean of the
	// orthogonal factors.
	fr := func(c cylMeta) float64 {
		ax, ay, az := math.Abs(c.axis.X), math.Abs(c.axis.Y), math.Abs(c.axis.Z)
		switch {
		case az >= ax && az >= ay:
			return c.radius * (math.Abs(fx) + math.Abs(fy)) / 2
		case ay >= ax:
			return c.radius * (math.Abs(fx) + math.Abs(fz)) / 2
		default:
			return c.radius * (math.Abs(fy) + math.Abs(fz)) / 2
		}
	}
	return sh.transformed(m, fp, fp, fr), nil
}

// DeleteSolid rebuilds the shape without the solid at index. Out-of-range
// indexes (including -1, "no specific index given") resolve to 0. A shape
// with no solids is returned unchanged.
func (k *Kernel) DeleteSolid(s geometry.Shape, index int) (geometry.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if len(sh.solids) == 0 {
		return s, nil
	}
	if index < 0 || index >= len(sh.solids) {
		index = 0
	}
	out := &shape{solids: make([]solid, 0, len(sh.solids)-1)}
	for i, so := range sh.solids {
		if i == index {
			continue
		}
		out.solids = append(out.solids, so)
	}
	return out, nil
}

// ExtractSolid returns a shape holding only the solid at index.
func (k *Kernel) ExtractSolid(s geometry.Shape, index int) (geometry.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sh.solids) {
		return nil, fmt.Errorf("sdfx: solid index %d out of range", index)
	}
	return &shape{solids: []solid{sh.solids[index]}}, nil
}

// ResizeCylindricalFace radially scales the whole shape about the axis of
// the referenced cylindrical face so that its radius becomes newRadius.
// This mirrors how a B-rep kernel applies an axis-scaling transform: every
// solid moves with it, not just the face.
func (k *Kernel) ResizeCylindricalFace(s geometry.Shape, ref geometry.FaceRef, newRadius float64) (geometry.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	cyl, err := sh.cylinderAt(ref)
	if err != nil {
		return nil, err
	}
	if cyl.radius < 1e-6 {
		return s, nil
	}
	factor := newRadius / cyl.radius
	axis := normalize(cyl.axis)
	center := cyl.center

	// Map the axis onto Z, scale radially, map back.
	phi := math.Atan2(axis.Y, axis.X)
	theta := math.Acos(clamp(axis.Z, -1, 1))
	m := sdf.Translate3d(v3.Vec{X: center.X, Y: center.Y, Z: center.Z}).
		Mul(sdf.RotateZ(phi)).
		Mul(sdf.RotateY(theta)).
		Mul(sdf.Scale3d(v3.Vec{X: factor, Y: factor, Z: 1})).
		Mul(sdf.RotateY(-theta)).
		Mul(sdf.RotateZ(-phi)).
		Mul(sdf.Translate3d(v3.Vec{X: -center.X, Y: -center.Y, Z: -center.Z}))

	fp := func(p geometry.Vec3) geometry.Vec3 {
		return radialScale(p, center, axis, factor)
	}
	fd := func(d geometry.Vec3) geometry.Vec3 {
		return radialScale(d, geometry.Vec3{}, axis, factor)
	}
	// Radii of cylinders coaxial with the target scale exactly; skewed ones
	// distort and keep their tracked value as an approximation.
	fr := func(c cylMeta) float64 {
		if math.Abs(dot(normalize(c.axis), axis)) > 0.9 {
			return c.radius * math.Abs(factor)
		}
		return c.radius
	}
	return sh.transformed(m, fp, fd, fr), nil
}

func (s *shape) cylinderAt(ref geometry.FaceRef) (cylMeta, error) {
	if ref.Solid < 0 || ref.Solid >= len(s.solids) {
		return cylMeta{}, fmt.Errorf("sdfx: solid index %d out of range", ref.Solid)
	}
	so := s.solids[ref.Solid]
	if ref.Shell < 0 || ref.Shell >= len(so.shells) {
		return cylMeta{}, fmt.Errorf("sdfx: shell index %d out of range", ref.Shell)
	}
	sh := so.shells[ref.Shell]
	if ref.Face < 0 || ref.Face >= len(sh.faces) {
		return cylMeta{}, fmt.Errorf("sdfx: face index %d out of range", ref.Face)
	}
	f := sh.faces[ref.Face]
	if f.kind != geometry.SurfaceCylinder || f.cyl == nil {
		return cylMeta{}, fmt.Errorf("sdfx: face %v is not cylindrical", ref)
	}
	return *f.cyl, nil
}

// --- small vector helpers over tracked metadata ---

func dot(a, b geometry.Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func normalize(v geometry.Vec3) geometry.Vec3 {
	l := math.Sqrt(dot(v, v))
	if l < 1e-12 {
		return geometry.Vec3{Z: 1}
	}
	return geometry.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// radialScale scales the component of p-center orthogonal to axis by f.
func radialScale(p, center, axis geometry.Vec3, f float64) geometry.Vec3 {
	v := geometry.Vec3{X: p.X - center.X, Y: p.Y - center.Y, Z: p.Z - center.Z}
	along := dot(v, axis)
	par := geometry.Vec3{X: axis.X * along, Y: axis.Y * along, Z: axis.Z * along}
	perp := geometry.Vec3{X: v.X - par.X, Y: v.Y - par.Y, Z: v.Z - par.Z}
	return geometry.Vec3{
		X: center.X + par.X + perp.X*f,
		Y: center.Y + par.Y + perp.Y*f,
		Z: center.Z + par.Z + perp.Z*f,
	}
}

// transformBox maps the eight corners of a box and re-boxes them. Exact for
// translations and scales, conservative for rotations.
func transformBox(b geometry.Box, fp pointFn) geometry.Box {
	if b.IsVoid() {
		return b
	}
	corners := [8]geometry.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	out := geometry.Box{Min: fp(corners[0]), Max: fp(corners[0])}
	for _, c := range corners[1:] {
		p := fp(c)
		out.Min.X = math.Min(out.Min.X, p.X)
		out.Min.Y = math.Min(out.Min.Y, p.Y)
		out.Min.Z = math.Min(out.Min.Z, p.Z)
		out.Max.X = math.Max(out.Max.X, p.X)
		out.Max.Y = math.Max(out.Max.Y, p.Y)
		out.Max.Z = math.Max(out.Max.Z, p.Z)
	}
	return out
}
