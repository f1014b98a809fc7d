package sdfx

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/nadzzz/lathe/internal/geometry"
)

// ErrParse is returned when a STEP file contains no usable solid geometry.
var ErrParse = errors.New("sdfx: no solid geometry found in STEP file")

// entity is one parsed STEP data instance: #id = TYPE(args);
type entity struct {
	id   int
	typ  string
	args string
	refs []int // every #n reference in args, in order
}

var (
	entityRe = regexp.MustCompile(`(?s)#(\d+)\s*=\s*([A-Z0-9_]+)\s*\((.*)\)\s*$`)
	refRe    = regexp.MustCompile(`#(\d+)`)
	numRe    = regexp.MustCompile(`[-+]?\d+\.?\d*(?:[eE][-+]?\d+)?`)
)

// parseStepEntities reads the DATA section of a STEP file into an entity
// map. The parser is tolerant: statements it cannot read are skipped.
func parseStepEntities(content string) map[int]*entity {
	entities := make(map[int]*entity)
	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if !strings.HasPrefix(stmt, "#") {
			continue
		}
		m := entityRe.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		e := &entity{id: id, typ: m[2], args: m[3]}
		for _, r := range refRe.FindAllStringSubmatch(m[3], -1) {
			n, err := strconv.Atoi(r[1])
			if err != nil {
				continue
			}
			e.refs = append(e.refs, n)
		}
		entities[id] = e
	}
	return entities
}

// parseTriple extracts the (x, y, z) coordinate list from a
// CARTESIAN_POINT or DIRECTION argument string.
func parseTriple(args string) (geometry.Vec3, bool) {
	open := strings.Index(args, "(")
	if open < 0 {
		return geometry.Vec3{}, false
	}
	end := strings.Index(args[open:], ")")
	if end < 0 {
		return geometry.Vec3{}, false
	}
	nums := numRe.FindAllString(args[open:open+end], -1)
	if len(nums) < 3 {
		return geometry.Vec3{}, false
	}
	var vals [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(nums[i], 64)
		if err != nil {
			return geometry.Vec3{}, false
		}
		vals[i] = f
	}
	return geometry.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, true
}

// trailingFloat extracts the last bare numeric argument, e.g. the radius of
// a CYLINDRICAL_SURFACE('', #placement, 12.5).
func trailingFloat(args string) (float64, bool) {
	nums := numRe.FindAllString(stripRefs(args), -1)
	if len(nums) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(nums[len(nums)-1], 64)
	return f, err == nil
}

func stripRefs(args string) string {
	return refRe.ReplaceAllString(args, "")
}

// stepModel resolves entities into the tracked shape structure.
type stepModel struct {
	entities map[int]*entity
}

func (m *stepModel) typed(id int) (*entity, string) {
	e, ok := m.entities[id]
	if !ok {
		return nil, ""
	}
	return e, e.typ
}

// point resolves a CARTESIAN_POINT entity.
func (m *stepModel) point(id int) (geometry.Vec3, bool) {
	e, typ := m.typed(id)
	if typ != "CARTESIAN_POINT" {
		return geometry.Vec3{}, false
	}
	return parseTriple(e.args)
}

// direction resolves a DIRECTION entity.
func (m *stepModel) direction(id int) (geometry.Vec3, bool) {
	e, typ := m.typed(id)
	if typ != "DIRECTION" {
		return geometry.Vec3{}, false
	}
	return parseTriple(e.args)
}

// placement resolves an AXIS2_PLACEMENT_3D into (location, axis direction).
func (m *stepModel) placement(id int) (loc, dir geometry.Vec3) {
	dir = geometry.Vec3{Z: 1}
	e, typ := m.typed(id)
	if typ != "AXIS2_PLACEMENT_3D" {
		return loc, dir
	}
	for _, ref := range e.refs {
		if p, ok := m.point(ref); ok {
			loc = p
		}
	}
	for _, ref := range e.refs {
		if d, ok := m.direction(ref); ok {
			dir = d
			break // first DIRECTION argument is the axis
		}
	}
	return loc, normalize(dir)
}

// face builds the tracked metadata for an ADVANCED_FACE / FACE_SURFACE.
func (m *stepModel) face(id int) faceMeta {
	e, typ := m.typed(id)
	if typ != "ADVANCED_FACE" && typ != "FACE_SURFACE" {
		return faceMeta{kind: geometry.SurfaceOther}
	}
	for _, ref := range e.refs {
		se, st := m.typed(ref)
		switch st {
		case "CYLINDRICAL_SURFACE":
			radius, ok := trailingFloat(se.args)
			if !ok {
				return faceMeta{kind: geometry.SurfaceOther}
			}
			f := faceMeta{kind: geometry.SurfaceCylinder, cyl: &cylMeta{radius: radius, axis: geometry.Vec3{Z: 1}}}
			if len(se.refs) > 0 {
				loc, dir := m.placement(se.refs[0])
				f.cyl.center = loc
				f.cyl.axis = dir
			}
			return f
		case "PLANE":
			return faceMeta{kind: geometry.SurfacePlane}
		}
	}
	return faceMeta{kind: geometry.SurfaceOther}
}

// reachablePoints collects every CARTESIAN_POINT reachable from the given
// entity through the reference graph. This gives a per-solid point cloud
// (vertices, placements) and therefore its bounding box.
func (m *stepModel) reachablePoints(id int) []geometry.Vec3 {
	var pts []geometry.Vec3
	seen := make(map[int]bool)
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		e, ok := m.entities[cur]
		if !ok {
			continue
		}
		if e.typ == "CARTESIAN_POINT" {
			if p, ok := parseTriple(e.args); ok {
				pts = append(pts, p)
			}
			continue
		}
		stack = append(stack, e.refs...)
	}
	return pts
}

func boxOfPoints(pts []geometry.Vec3) geometry.Box {
	if len(pts) == 0 {
		return geometry.Box{}
	}
	b := geometry.Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		if p.X < b.Min.X {
			b.Min.X = p.X
		}
		if p.Y < b.Min.Y {
			b.Min.Y = p.Y
		}
		if p.Z < b.Min.Z {
			b.Min.Z = p.Z
		}
		if p.X > b.Max.X {
			b.Max.X = p.X
		}
		if p.Y > b.Max.Y {
			b.Max.Y = p.Y
		}
		if p.Z > b.Max.Z {
			b.Max.Z = p.Z
		}
	}
	return b
}

// buildShell resolves a CLOSED_SHELL / OPEN_SHELL into face metadata in the
// file's reference order.
func (m *stepModel) buildShell(id int) (shellMeta, bool) {
	e, typ := m.typed(id)
	if typ != "CLOSED_SHELL" && typ != "OPEN_SHELL" {
		return shellMeta{}, false
	}
	var sm shellMeta
	for _, ref := range e.refs {
		_, rt := m.typed(ref)
		if rt == "ADVANCED_FACE" || rt == "FACE_SURFACE" {
			sm.faces = append(sm.faces, m.face(ref))
		}
	}
	return sm, true
}

// buildSolid resolves a MANIFOLD_SOLID_BREP (or BREP_WITH_VOIDS) into a
// tracked solid with a preview SDF. The preview geometry is the solid's
// bounding box; trimmed-surface reconstruction is out of scope, and every
// consumer that needs exact feature data reads the tracked metadata
// instead of the SDF.
func (m *stepModel) buildSolid(id int) (solid, bool) {
	e, typ := m.typed(id)
	if typ != "MANIFOLD_SOLID_BREP" && typ != "BREP_WITH_VOIDS" {
		return solid{}, false
	}
	var so solid
	for _, ref := range e.refs {
		if sm, ok := m.buildShell(ref); ok {
			so.shells = append(so.shells, sm)
		}
	}
	so.bounds = boxOfPoints(m.reachablePoints(id))
	so.sdf = previewSDF(so.bounds)
	return so, len(so.shells) > 0
}

// previewSDF builds the box SDF used for meshing and mass estimation.
func previewSDF(b geometry.Box) sdf.SDF3 {
	if b.IsVoid() {
		return nil
	}
	s, err := sdf.Box3D(v3.Vec{X: b.Width(), Y: b.Depth(), Z: b.Height()}, 0)
	if err != nil {
		return nil
	}
	center := v3.Vec{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
	return sdf.Transform3D(s, sdf.Translate3d(center))
}

// Load reads a STEP file and returns its shape. Solids are enumerated in
// ascending entity-id order, which is stable for a given file.
func (k *Kernel) Load(path string) (geometry.Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STEP file: %w", err)
	}
	m := &stepModel{entities: parseStepEntities(string(data))}

	var solidIDs []int
	for id, e := range m.entities {
		if e.typ == "MANIFOLD_SOLID_BREP" || e.typ == "BREP_WITH_VOIDS" {
			solidIDs = append(solidIDs, id)
		}
	}
	sort.Ints(solidIDs)

	sh := &shape{}
	for _, id := range solidIDs {
		if so, ok := m.buildSolid(id); ok {
			sh.solids = append(sh.solids, so)
		}
	}

	// Some exporters emit bare shells without a solid wrapper; treat each
	// top-level closed shell as its own body.
	if len(sh.solids) == 0 {
		var shellIDs []int
		for id, e := range m.entities {
			if e.typ == "CLOSED_SHELL" {
				shellIDs = append(shellIDs, id)
			}
		}
		sort.Ints(shellIDs)
		for _, id := range shellIDs {
			sm, ok := m.buildShell(id)
			if !ok {
				continue
			}
			so := solid{shells: []shellMeta{sm}}
			so.bounds = boxOfPoints(m.reachablePoints(id))
			so.sdf = previewSDF(so.bounds)
			sh.solids = append(sh.solids, so)
		}
	}

	if len(sh.solids) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrParse)
	}
	return sh, nil
}
