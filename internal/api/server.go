// Package api serves module resolution over HTTP for tuning tools.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/iqinterp/internal/db"
	"github.com/banshee-data/iqinterp/internal/httputil"
	"github.com/banshee-data/iqinterp/internal/iqmodule"
	"github.com/banshee-data/iqinterp/internal/monitoring"
)

const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// maxTriggerBytes caps a resolve request body.
const maxTriggerBytes = 1 << 20

type loaded struct {
	resolver iqmodule.Resolver
	path     string
}

// Server resolves loaded modules on request. Resolvers keep per-module
// change detection state, so calls are serialised.
type Server struct {
	mu      sync.Mutex
	modules map[string]*loaded
	db      *db.DB
}

// NewServer returns a server with no modules loaded. database may be nil,
// in which case resolves are not recorded and the run endpoints return 404.
func NewServer(database *db.DB) *Server {
	return &Server{modules: make(map[string]*loaded), db: database}
}

// Load reads the calibration for module from path, replacing any earlier
// load of the same module.
func (s *Server) Load(module, path string) error {
	r, err := iqmodule.Load(module, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.modules[module] = &loaded{resolver: r, path: path}
	s.mu.Unlock()
	monitoring.Logf("loaded %s from %s", module, path)
	return nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/modules", s.listModules)
	mux.HandleFunc("/api/resolve", s.resolve)
	mux.HandleFunc("/api/reload", s.reload)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/run", s.showRun)
	mux.HandleFunc("/api/sweep", s.handleSweep)
	return mux
}

type moduleStatus struct {
	Name      string `json:"name"`
	Loaded    bool   `json:"loaded"`
	Chromatix string `json:"chromatix,omitempty"`
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	names := iqmodule.Modules()
	out := make([]moduleStatus, len(names))
	for i, name := range names {
		out[i].Name = name
		if m, ok := s.modules[name]; ok {
			out[i].Loaded = true
			out[i].Chromatix = m.path
		}
	}
	httputil.WriteJSONOK(w, out)
}

type resolveResponse struct {
	Module string `json:"module"`
	RunID  string `json:"run_id,omitempty"`
	Params any    `json:"params"`
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	module := r.URL.Query().Get("module")
	var trig iqmodule.TriggerData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTriggerBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&trig); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid trigger: %v", err))
		return
	}

	s.mu.Lock()
	m, ok := s.modules[module]
	if !ok {
		s.mu.Unlock()
		httputil.NotFound(w, fmt.Sprintf("module %q is not loaded", module))
		return
	}
	params, err := m.resolver.Resolve(&trig)
	path := m.path
	s.mu.Unlock()
	if err != nil {
		httputil.UnprocessableEntity(w, err.Error())
		return
	}

	resp := resolveResponse{Module: module, Params: params}
	if s.db != nil {
		id, err := s.db.RecordResolve(r.Context(), module, path, trig, params)
		if err != nil {
			monitoring.Logf("failed to record resolve: %v", err)
		}
		resp.RunID = id
	}
	httputil.WriteJSONOK(w, resp)
}

// reload rereads a module's calibration from the path it was loaded from.
func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	module := r.URL.Query().Get("module")
	s.mu.Lock()
	m, ok := s.modules[module]
	s.mu.Unlock()
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("module %q is not loaded", module))
		return
	}
	if err := s.Load(module, m.path); err != nil {
		httputil.UnprocessableEntity(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, moduleStatus{Name: module, Loaded: true, Chromatix: m.path})
}

type runResponse struct {
	RunID     string          `json:"run_id"`
	Module    string          `json:"module"`
	Chromatix string          `json:"chromatix"`
	Trigger   json.RawMessage `json:"trigger"`
	Params    json.RawMessage `json:"params"`
	CreatedAt time.Time       `json:"created_at"`
}

func toRunResponse(run *db.ResolveRun) runResponse {
	return runResponse{
		RunID:     run.RunID,
		Module:    run.Module,
		Chromatix: run.ChromatixPath,
		Trigger:   run.Trigger,
		Params:    run.Params,
		CreatedAt: run.CreatedAt,
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "run history is disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = n
	}

	runs, err := s.db.ListResolves(r.Context(), r.URL.Query().Get("module"), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	out := make([]runResponse, len(runs))
	for i := range runs {
		out[i] = toRunResponse(&runs[i])
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "run history is disabled")
		return
	}

	run, err := s.db.GetResolve(r.Context(), r.URL.Query().Get("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, toRunResponse(run))
}

type sweepResponse struct {
	RunID  string    `json:"run_id"`
	Module string    `json:"module"`
	Axis   string    `json:"axis"`
	Points int       `json:"points"`
	Fields []string  `json:"fields,omitempty"`
	Field  string    `json:"field,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
}

// handleSweep dispatches /api/sweep by method.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w, "GET, DELETE")
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "run history is disabled")
		return
	}
	if r.Method == http.MethodDelete {
		s.deleteSweep(w, r)
		return
	}
	s.showSweep(w, r)
}

// deleteSweep removes a recorded sweep and its samples.
func (s *Server) deleteSweep(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return
	}
	err := s.db.DeleteSweep(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	monitoring.Logf("deleted sweep %s", id)
	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

// showSweep returns a recorded sweep's fields, or one field's series when
// 'field' is given.
func (s *Server) showSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := s.db.GetSweep(ctx, r.URL.Query().Get("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	resp := sweepResponse{RunID: run.RunID, Module: run.Module, Axis: string(run.Axis), Points: run.Points}
	if field := r.URL.Query().Get("field"); field != "" {
		resp.Field = field
		resp.X, resp.Y, err = s.db.SweepSeries(ctx, run.RunID, field)
	} else {
		resp.Fields, err = s.db.SweepFields(ctx, run.RunID)
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, resp)
}
