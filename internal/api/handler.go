package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/obsidianstack/framewatch/internal/store"
	"github.com/obsidianstack/framewatch/pkg/types"
)

// Pipeline and overall health states.
const (
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateCritical = "critical"
	StateUnknown  = "unknown"
)

// Registry lists the declared pipelines.
type Registry interface {
	Pipelines() []types.PipelineInfo
}

// Engine is the part of *monitor.Engine the API drives.
type Engine interface {
	Registry
	SubmitFrame(types.FrameSignal)
	SubmitWarning(types.RawWarningSignal)
	Backlog() (frames, warnings int)
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	engine Engine
	store  *store.Store
	mux    *http.ServeMux
}

// New creates a Handler and registers all routes. protect wraps the intake
// endpoints; nil leaves them open.
func New(eng Engine, st *store.Store, protect func(http.Handler) http.Handler) http.Handler {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}
	h := &Handler{engine: eng, store: st, mux: http.NewServeMux()}

	h.mux.Handle("/api/v1/frames", protect(http.HandlerFunc(h.frames)))
	h.mux.Handle("/api/v1/warnings", protect(http.HandlerFunc(h.warnings)))
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/pipelines", h.listPipelines)
	h.mux.HandleFunc("/api/v1/pipelines/", h.getPipeline) // subtree, extracts {name}
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pipelines := pipelineResponses(h.engine, h.store)
	resp := HealthResponse{PipelineCount: len(pipelines), State: StateUnknown}
	resp.FrameBacklog, resp.StatusBacklog = h.engine.Backlog()

	for _, p := range pipelines {
		resp.WarningCount += len(p.Warnings)
		switch p.State {
		case StateHealthy:
			resp.HealthyCount++
		case StateDegraded:
			resp.DegradedCount++
		case StateCritical:
			resp.CriticalCount++
		default:
			resp.UnknownCount++
		}
	}

	switch {
	case resp.CriticalCount > 0:
		resp.State = StateCritical
	case resp.DegradedCount > 0:
		resp.State = StateDegraded
	case resp.HealthyCount > 0:
		resp.State = StateHealthy
	}
	jsonResp(w, http.StatusOK, resp)
}

// listPipelines returns GET /api/v1/pipelines.
func (h *Handler) listPipelines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, pipelineResponses(h.engine, h.store))
}

// getPipeline returns GET /api/v1/pipelines/{name}.
func (h *Handler) getPipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/pipelines/")
	if name == "" {
		h.listPipelines(w, r)
		return
	}

	for _, info := range h.engine.Pipelines() {
		if info.Name == name {
			jsonResp(w, http.StatusOK, toPipelineResponse(info, h.store))
			return
		}
	}
	jsonErr(w, http.StatusNotFound, "pipeline not found")
}

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.engine, h.store))
}

// BuildSnapshot assembles the full state dump shared by GET /api/v1/snapshot
// and the WebSocket hub.
func BuildSnapshot(reg Registry, st *store.Store) SnapshotResponse {
	return SnapshotResponse{
		Pipelines:   pipelineResponses(reg, st),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func pipelineResponses(reg Registry, st *store.Store) []PipelineResponse {
	infos := reg.Pipelines()
	out := make([]PipelineResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, toPipelineResponse(info, st))
	}
	return out
}

// toPipelineResponse merges declared metadata with the stored state.
func toPipelineResponse(info types.PipelineInfo, st *store.Store) PipelineResponse {
	resp := PipelineResponse{
		Name:     info.Name,
		Declared: info,
		State:    StateUnknown,
		Warnings: []string{},
	}

	e, ok := st.Get(info.Name)
	if !ok || !st.Fresh(e) {
		resp.Diagnostics = computeDiagnostics(resp, false)
		return resp
	}

	resp.LastSeen = e.UpdatedAt.UTC().Format(time.RFC3339)
	if f := e.LastFrame; f != nil {
		resp.LastSeq = f.Seq
		resp.LastFrame = f.SensorTS
	}
	for _, w := range e.Warnings {
		resp.Warnings = append(resp.Warnings, w.Warning.String())
	}

	hb := e.Heartbeat
	if hb == nil {
		resp.Diagnostics = computeDiagnostics(resp, false)
		return resp
	}
	resp.Online = hb.Online
	resp.Synced = hb.Synced
	resp.FPS = hb.FPS
	resp.FrameLoss = hb.FrameLoss
	resp.DelayUS = hb.DelayUS
	resp.State = stateOf(resp)
	resp.Diagnostics = computeDiagnostics(resp, true)
	return resp
}

// stateOf grades a pipeline with a stored heartbeat.
func stateOf(p PipelineResponse) string {
	switch {
	case !p.Online:
		return StateCritical
	case len(p.Warnings) > 0 || !p.Synced:
		return StateDegraded
	default:
		return StateHealthy
	}
}
