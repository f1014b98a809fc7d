// Package server exposes the REST API for the voice CAD assistant.
//
// The API carries the full interaction surface: STEP upload, voice and
// text commands, the mesh export, the assembly tree, and its Hasse
// diagram. Sessions are selected with the X-Session-ID header; requests
// without one share the default session.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/lathe/internal/assembly"
	"github.com/nadzzz/lathe/internal/dispatch"
	"github.com/nadzzz/lathe/internal/geometry"
	"github.com/nadzzz/lathe/internal/session"
)

// maxUploadBytes bounds STEP and audio uploads.
const maxUploadBytes = 50 << 20

// Server is the API HTTP server.
type Server struct {
	port       int
	assetsDir  string
	deflection float64

	kernel     geometry.Kernel
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher

	server *http.Server
}

// New creates an API server.
func New(port int, assetsDir string, deflection float64, kernel geometry.Kernel, sessions *session.Manager, dispatcher *dispatch.Dispatcher) *Server {
	return &Server{
		port:       port,
		assetsDir:  assetsDir,
		deflection: deflection,
		kernel:     kernel,
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

// ListenAndServe starts the API server. It blocks until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := os.MkdirAll(s.assetsDir, 0o755); err != nil {
		return fmt.Errorf("creating assets dir: %w", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("api server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handler builds the route table.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleStatus)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /api/voice", s.handleVoice)
	mux.HandleFunc("POST /api/text", s.handleText)
	mux.HandleFunc("GET /api/model.stl", s.handleModel)
	mux.HandleFunc("GET /api/component/{id}", s.handleComponent)
	mux.HandleFunc("GET /api/tree", s.handleTree)
	mux.HandleFunc("GET /api/hasse", s.handleHasse)

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return cors(mux)
}

// cors allows the browser frontend (usually another port) to call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFor resolves the request's session from the X-Session-ID header.
func (s *Server) sessionFor(r *http.Request) *session.Session {
	return s.sessions.Get(r.Header.Get("X-Session-ID"))
}

// handleStatus reports daemon liveness.
//
// @Summary  Service status
// @Tags     status
// @Produce  json
// @Success  200  {object}  map[string]any  "Service status"
// @Router   / [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// handleUpload loads a STEP file into the session.
//
// @Summary     Upload a STEP model
// @Description Parses the STEP file, replaces the session's shape, exports the mesh, and rebuilds the assembly tree.
// @Tags        model
// @Accept      multipart/form-data
// @Produce     json
// @Param       file          formData  file    true   "STEP file"
// @Param       X-Session-ID  header    string  false  "Session identifier"
// @Success     200  {object}  map[string]any  "Load result with assembly tree"
// @Failure     400  {string}  string  "Missing or unreadable file"
// @Router      /upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Keep the upload on disk so the tree builder can recover product names.
	path := filepath.Join(s.assetsDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": err.Error()})
		return
	}
	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadBytes)); err != nil {
		dst.Close()
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": err.Error()})
		return
	}
	dst.Close()

	sess := s.sessionFor(r)
	sess.Lock()
	defer sess.Unlock()

	slog.Info("loading step file", "session_id", sess.ID(), "path", path)
	shape, err := s.kernel.Load(path)
	if err != nil {
		slog.Error("step load failed", "path", path, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": err.Error()})
		return
	}

	sess.Replace(shape)
	sess.SetSource(path)

	if err := s.kernel.MeshExport(shape, sess.ExportPath(), s.deflection); err != nil {
		slog.Error("mesh export failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": err.Error()})
		return
	}

	tree := assembly.BuildTree(shape, path)
	sess.SetTree(tree)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "File loaded",
		"tree":    tree,
	})
}

// handleVoice runs one audio utterance through the turn pipeline.
//
// @Summary     Dispatch a voice command
// @Description Transcribes the audio, interprets it as a CAD command, applies it to the session's shape, and returns the spoken response.
// @Tags        dispatch
// @Accept      multipart/form-data
// @Produce     json
// @Param       file          formData  file    true   "Audio recording (wav/ogg/webm)"
// @Param       X-Session-ID  header    string  false  "Session identifier"
// @Success     200  {object}  dispatch.TurnResult  "Turn outcome"
// @Failure     400  {string}  string  "Missing or unreadable file"
// @Router      /api/voice [post]
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}

	result := s.dispatcher.HandleVoice(r.Context(), s.sessionFor(r), audio, contentType)
	writeJSON(w, http.StatusOK, result)
}

// handleText runs one typed utterance through the turn pipeline. Typed
// input is the fallback when no microphone is available.
//
// @Summary     Dispatch a text command
// @Tags        dispatch
// @Accept      json
// @Produce     json
// @Param       request       body    object  true   "{\"text\": \"scale the model by 2\"}"
// @Param       X-Session-ID  header  string  false  "Session identifier"
// @Success     200  {object}  dispatch.TurnResult  "Turn outcome"
// @Failure     400  {string}  string  "Invalid request body"
// @Router      /api/text [post]
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}

	result := s.dispatcher.HandleText(r.Context(), s.sessionFor(r), req.Text)
	writeJSON(w, http.StatusOK, result)
}

// handleModel serves the current mesh export.
//
// @Summary  Download the current model mesh
// @Tags     model
// @Produce  application/octet-stream
// @Param    X-Session-ID  header  string  false  "Session identifier"
// @Success  200  {file}    file            "Binary STL"
// @Success  200  {object}  map[string]any  "No model loaded"
// @Router   /api/model.stl [get]
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	path := sess.ExportPath()
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "No model loaded"})
		return
	}
	w.Header().Set("Content-Type", "model/stl")
	http.ServeFile(w, r, path)
}

// handleComponent exports and serves the mesh of one component, addressed
// by its assembly tree node id. Shell and face ids resolve to their
// enclosing solid.
//
// @Summary  Download one component's mesh
// @Tags     model
// @Produce  application/octet-stream
// @Param    id            path    string  true   "Assembly tree node id"
// @Param    X-Session-ID  header  string  false  "Session identifier"
// @Success  200  {file}    file            "Binary STL"
// @Success  200  {object}  map[string]any  "No model loaded or component not found"
// @Router   /api/component/{id} [get]
func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sess := s.sessionFor(r)
	sess.Lock()
	defer sess.Unlock()

	shape, err := sess.Current()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "No model loaded"})
		return
	}

	idx, ok := assembly.SolidFor(sess.Tree(), id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"error": "Component not found"})
		return
	}

	component, err := s.kernel.ExtractSolid(shape, idx)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "Component not found"})
		return
	}

	path := filepath.Join(s.assetsDir, fmt.Sprintf("component_%s.stl", filepath.Base(id)))
	if err := s.kernel.MeshExport(component, path, s.deflection); err != nil {
		slog.Error("component export failed", "id", id, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"error": "Component not found"})
		return
	}

	w.Header().Set("Content-Type", "model/stl")
	http.ServeFile(w, r, path)
}

// handleTree returns the assembly tree snapshot.
//
// @Summary  Current assembly tree
// @Tags     model
// @Produce  json
// @Param    X-Session-ID  header  string  false  "Session identifier"
// @Success  200  {object}  assembly.Node   "Assembly hierarchy"
// @Success  200  {object}  map[string]any  "No model loaded"
// @Router   /api/tree [get]
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	sess.Lock()
	tree := sess.Tree()
	sess.Unlock()

	if tree == nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "No model loaded"})
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// handleHasse returns the Hasse diagram of the assembly hierarchy. The
// tree is rebuilt from the current shape so the diagram never lags a
// mutation.
//
// @Summary  Hasse diagram of the assembly hierarchy
// @Tags     model
// @Produce  json
// @Param    X-Session-ID  header  string  false  "Session identifier"
// @Success  200  {object}  assembly.Graph  "Diagram nodes and edges"
// @Router   /api/hasse [get]
func (s *Server) handleHasse(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	sess.Lock()
	defer sess.Unlock()

	shape, err := sess.Current()
	if err != nil {
		writeJSON(w, http.StatusOK, assembly.Graph{
			Nodes: []assembly.GraphNode{{
				ID:   "nodata",
				Data: assembly.NodeLabel{Label: "No Model Loaded"},
				Type: "default",
			}},
			Edges: []assembly.GraphEdge{},
		})
		return
	}

	tree := assembly.BuildTree(shape, sess.Source())
	sess.SetTree(tree)
	writeJSON(w, http.StatusOK, assembly.Reduce(tree))
}

// formFile extracts the "file" part from a multipart upload.
func (s *Server) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parsing multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("missing file field: %w", err)
	}
	return file, header, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
