package server

import (
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lathe/internal/assembly"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
	"github.com/nadzzz/lathe/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	kernel := sdfx.New(sdfx.WithMeshCells(32))
	sessions := session.NewManager(t.TempDir())
	return New(0, t.TempDir(), 0, kernel, sessions, nil), sessions
}

func get(t *testing.T, s *Server, path, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleComponent(t *testing.T) {
	s, sessions := newTestServer(t)

	compound, err := sdfx.Compound(sdfx.Box(10, 10, 10), sdfx.Cylinder(20, 3))
	require.NoError(t, err)

	sess := sessions.Get("t")
	sess.Lock()
	sess.Replace(compound)
	tree := assembly.BuildTree(compound, "")
	sess.SetTree(tree)
	sess.Unlock()

	rec := get(t, s, "/api/component/"+tree.Children[1].ID, "t")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/stl", rec.Header().Get("Content-Type"))

	body := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(body), 84)
	count := binary.LittleEndian.Uint32(body[80:84])
	assert.Greater(t, count, uint32(0))
	assert.Equal(t, 84+int(count)*50, len(body))
}

func TestHandleComponentUnknownID(t *testing.T) {
	s, sessions := newTestServer(t)

	sess := sessions.Get("t")
	sess.Lock()
	sess.Replace(sdfx.Box(10, 10, 10))
	sess.SetTree(assembly.BuildTree(sdfx.Box(10, 10, 10), ""))
	sess.Unlock()

	rec := get(t, s, "/api/component/not-a-node", "t")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Component not found", resp["error"])
}

func TestHandleComponentNoModel(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/component/anything", "empty")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No model loaded", resp["error"])
}
