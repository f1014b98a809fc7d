// Package geometry defines the abstract solid-geometry kernel interface.
// Implementations provide STEP loading, rigid and affine transforms, solid
// deletion, feature resizing, mass properties and mesh export behind this
// interface. The kernel abstraction allows swapping backends without
// changing the rest of the system.
package geometry

import "errors"

// ErrInvalidParameter is returned when a transform parameter is degenerate,
// e.g. a scale factor within 1e-9 of zero.
var ErrInvalidParameter = errors.New("geometry: invalid parameter")

// ZeroTolerance is the threshold below which a scale factor is rejected.
const ZeroTolerance = 1e-9

// Axis identifies a global coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "Z"
	}
}

// ParseAxis maps a user-supplied axis name to an Axis. Any value other than
// X or Y (case-insensitive) falls back to Z.
func ParseAxis(s string) Axis {
	switch s {
	case "X", "x":
		return AxisX
	case "Y", "y":
		return AxisY
	default:
		return AxisZ
	}
}

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3
	Max Vec3
}

// IsVoid reports whether the box encloses no volume.
func (b Box) IsVoid() bool {
	return b.Max.X <= b.Min.X && b.Max.Y <= b.Min.Y && b.Max.Z <= b.Min.Z
}

// Width returns the X extent.
func (b Box) Width() float64 { return b.Max.X - b.Min.X }

// Depth returns the Y extent.
func (b Box) Depth() float64 { return b.Max.Y - b.Min.Y }

// Height returns the Z extent.
func (b Box) Height() float64 { return b.Max.Z - b.Min.Z }

// SurfaceKind classifies the underlying surface of a face.
type SurfaceKind int

const (
	SurfacePlane SurfaceKind = iota
	SurfaceCylinder
	SurfaceOther
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfacePlane:
		return "plane"
	case SurfaceCylinder:
		return "cylinder"
	default:
		return "other"
	}
}

// FaceRef addresses a face by its position in the kernel's native
// enumeration order. A FaceRef is only valid against the exact Shape value
// it was produced from; any mutation produces a new Shape with a fresh
// enumeration.
type FaceRef struct {
	Solid int
	Shell int
	Face  int
}

// CylinderFace describes a cylindrical face found in a shape.
type CylinderFace struct {
	Ref    FaceRef
	Radius float64
	Axis   Vec3 // unit direction of the cylinder axis
	Center Vec3 // a point on the axis
}

// FaceTopology describes one face in the shape's topology snapshot.
type FaceTopology struct {
	Kind SurfaceKind
}

// ShellTopology describes one shell.
type ShellTopology struct {
	Faces []FaceTopology
}

// SolidTopology describes one solid body.
type SolidTopology struct {
	Shells []ShellTopology
}

// Topology is an ordered structural snapshot of a shape: solids, their
// shells and their faces, in the kernel's deterministic enumeration order.
type Topology struct {
	Solids []SolidTopology
}

// FaceCount returns the total number of faces across all solids.
func (t Topology) FaceCount() int {
	n := 0
	for _, s := range t.Solids {
		for _, sh := range s.Shells {
			n += len(sh.Faces)
		}
	}
	return n
}

// MassProperties holds the volume and surface area of a shape.
type MassProperties struct {
	Volume float64 `json:"volume"`
	Area   float64 `json:"area"`
}

// Shape is an opaque, immutable solid-geometry value. All kernel operations
// take a Shape and return a replacement Shape; the input is never mutated.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box of the whole shape.
	BoundingBox() Box

	// Topology returns the ordered solid/shell/face structure.
	// The order is deterministic for a given Shape value.
	Topology() Topology

	// Cylinders enumerates the cylindrical faces in the kernel's native
	// face order. The result is empty, not nil-checked-by-error, when the
	// shape has no cylindrical faces.
	Cylinders() []CylinderFace
}

// Kernel is the abstract geometry kernel. Every operation is a pure
// function from Shape (plus parameters) to a new Shape.
type Kernel interface {
	// Load reads a STEP file and returns its shape.
	Load(path string) (Shape, error)

	// Scale uniformly scales the shape about the origin.
	Scale(s Shape, factor float64) (Shape, error)

	// Translate moves the shape by (dx, dy, dz).
	Translate(s Shape, dx, dy, dz float64) (Shape, error)

	// Rotate rotates the shape about a global axis through the origin.
	Rotate(s Shape, axis Axis, angleDegrees float64) (Shape, error)

	// ScaleNonUniform applies independent per-axis scale factors about the
	// origin.
	ScaleNonUniform(s Shape, fx, fy, fz float64) (Shape, error)

	// DeleteSolid rebuilds the shape without the solid at index. An index
	// outside [0, solidCount) resolves to 0. A shape with zero solids is
	// returned unchanged.
	DeleteSolid(s Shape, index int) (Shape, error)

	// ExtractSolid returns a shape holding only the solid at index, for
	// per-component export. An index outside [0, solidCount) is an error.
	ExtractSolid(s Shape, index int) (Shape, error)

	// ResizeCylindricalFace radially scales the shape about the axis of
	// the referenced cylindrical face so that its radius becomes newRadius.
	ResizeCylindricalFace(s Shape, ref FaceRef, newRadius float64) (Shape, error)

	// MassProperties computes the volume and surface area of the shape.
	MassProperties(s Shape) (MassProperties, error)

	// MeshExport tessellates the shape and writes a binary STL file.
	// Deflection controls tessellation fidelity (smaller is finer).
	MeshExport(s Shape, path string, deflection float64) error
}
