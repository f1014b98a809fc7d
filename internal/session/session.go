// Package session holds the mutable per-conversation CAD state: the
// current shape and the derived artifacts (summary text, export path,
// assembly tree) that must stay consistent with it.
//
// A session serializes turns: at most one mutation is in flight at a time.
// Callers take the session lock for the duration of a turn; the session
// itself performs no internal locking.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nadzzz/lathe/internal/assembly"
	"github.com/nadzzz/lathe/internal/features"
	"github.com/nadzzz/lathe/internal/geometry"
)

// ErrEmpty is returned when an operation needs a shape and none is loaded.
// This is the only session-level failure allowed to abort a turn.
var ErrEmpty = errors.New("session: no model loaded")

// Session is the exclusive owner of one shape and its derived caches.
type Session struct {
	mu sync.Mutex

	id         string
	shape      geometry.Shape
	summary    string // lazily rebuilt after Replace
	lastSpoken string
	tree       *assembly.Node
	sourcePath string
	exportPath string
}

// New creates an empty session.
func New(id, exportPath string) *Session {
	return &Session{id: id, exportPath: exportPath}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Lock acquires the session for one full turn.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Current returns the current shape, or ErrEmpty when nothing is loaded.
func (s *Session) Current() (geometry.Shape, error) {
	if s.shape == nil {
		return nil, ErrEmpty
	}
	return s.shape, nil
}

// Replace unconditionally overwrites the current shape and invalidates the
// cached summary. Read operations never invalidate anything.
func (s *Session) Replace(shape geometry.Shape) {
	s.shape = shape
	s.summary = ""
}

// SetSource records the path of the STEP file the shape was loaded from.
// The assembly tree builder uses it to recover product names.
func (s *Session) SetSource(path string) { s.sourcePath = path }

// Source returns the recorded STEP path, if any.
func (s *Session) Source() string { return s.sourcePath }

// ExportPath is where the mesh export of the current shape lives.
func (s *Session) ExportPath() string { return s.exportPath }

// SetTree stores the current assembly tree snapshot.
func (s *Session) SetTree(tree *assembly.Node) { s.tree = tree }

// Tree returns the current assembly tree snapshot, or nil.
func (s *Session) Tree() *assembly.Node { return s.tree }

// LastSpoken returns the most recent spoken response, used for echo
// suppression.
func (s *Session) LastSpoken() string { return s.lastSpoken }

// SetLastSpoken records the response that is about to be synthesized.
func (s *Session) SetLastSpoken(text string) { s.lastSpoken = text }

// Summary returns the model summary text, regenerating it if a mutation
// invalidated the cache.
func (s *Session) Summary() (string, error) {
	if s.shape == nil {
		return "", ErrEmpty
	}
	if s.summary == "" {
		s.summary = buildSummary(s.shape)
	}
	return s.summary, nil
}

// buildSummary combines the bounding-box/body-count text with the feature
// enumeration. The answering model grounds every numeric claim in this
// text, so all dimensions the user may ask about must appear here.
func buildSummary(shape geometry.Shape) string {
	bb := shape.BoundingBox()
	bodies := len(shape.Topology().Solids)

	var sb strings.Builder
	sb.WriteString("CAD Model Summary:\n")
	fmt.Fprintf(&sb, "- Number of bodies: %d\n", bodies)
	sb.WriteString("- Bounding box:\n")
	fmt.Fprintf(&sb, "    - X range: %.2f to %.2f   (width = %.2f)\n", bb.Min.X, bb.Max.X, bb.Width())
	fmt.Fprintf(&sb, "    - Y range: %.2f to %.2f   (depth = %.2f)\n", bb.Min.Y, bb.Max.Y, bb.Depth())
	fmt.Fprintf(&sb, "    - Z range: %.2f to %.2f   (height = %.2f)\n", bb.Min.Z, bb.Max.Z, bb.Height())
	sb.WriteString("\nFEATURES:\n")
	sb.WriteString(features.Summary(shape))
	return sb.String()
}

// Manager tracks live sessions by id.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	assetsDir string
}

// DefaultID is the session used when a caller does not name one.
const DefaultID = "default"

// NewManager creates a session manager. Export artifacts are written under
// assetsDir, one file per session.
func NewManager(assetsDir string) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		assetsDir: assetsDir,
	}
}

// Get returns the session with the given id, creating it on first use. An
// empty id maps to the default session.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := New(id, fmt.Sprintf("%s/model_%s.stl", m.assetsDir, id))
	m.sessions[id] = s
	return s
}

// Create registers a fresh session with a generated id.
func (m *Manager) Create() *Session {
	return m.Get(uuid.NewString())
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
