// Package features enumerates the addressable sub-features of a shape.
//
// Only cylindrical faces (holes and bosses) are classified as features.
// The index assigned here is positional: it is valid only against the exact
// shape value the enumeration ran on. After any mutation the caller must
// enumerate again; there is no persistent feature identity.
package features

import (
	"fmt"
	"strings"

	"github.com/nadzzz/lathe/internal/geometry"
)

// Feature is one addressable feature of a shape.
type Feature struct {
	// Index is the 0-based position in this enumeration pass.
	Index int

	// Ref addresses the underlying face for kernel operations.
	Ref geometry.FaceRef

	// Radius is the cylinder radius at enumeration time.
	Radius float64

	// Axis is the unit direction of the cylinder axis.
	Axis geometry.Vec3
}

// List enumerates the features of a shape in the kernel's native face
// order. The result is empty when the shape has no cylindrical faces.
func List(s geometry.Shape) []Feature {
	cyls := s.Cylinders()
	out := make([]Feature, len(cyls))
	for i, c := range cyls {
		out[i] = Feature{Index: i, Ref: c.Ref, Radius: c.Radius, Axis: c.Axis}
	}
	return out
}

// Summary renders the feature enumeration as text for the answering model.
func Summary(s geometry.Shape) string {
	topo := s.Topology()
	feats := List(s)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total faces: %d\n", topo.FaceCount())
	fmt.Fprintf(&sb, "Cylindrical faces (possible holes/bosses): %d", len(feats))
	for _, f := range feats {
		fmt.Fprintf(&sb, "\nCylinder %d: radius = %.2f, axis direction = (%.2f, %.2f, %.2f)",
			f.Index+1, f.Radius, f.Axis.X, f.Axis.Y, f.Axis.Z)
	}
	return sb.String()
}
