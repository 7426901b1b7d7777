// Package harness wires the mock bridge, markdown preview, and the harness
// shell UI into one http.Handler for browser tests and the standalone binary.
package harness

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/errs"
	"github.com/cocobolo/uitest/internal/obs"
	"github.com/cocobolo/uitest/internal/ratelimit"
	"github.com/cocobolo/uitest/internal/web"
)

// Maximum invoke payload. Real commands carry note content at most.
const maxInvokeBody = 1 << 20

// Server serves the harness UI and the invoke endpoint.
type Server struct {
	Bridge   *bridge.Dispatcher
	Renderer *web.Renderer
	Limiter  *ratelimit.RateLimiter

	staticDir string
}

// New creates a harness server around the given dispatcher.
func New(b *bridge.Dispatcher, renderer *web.Renderer, limiter *ratelimit.RateLimiter, staticDir string) *Server {
	return &Server{
		Bridge:    b,
		Renderer:  renderer,
		Limiter:   limiter,
		staticDir: staticDir,
	}
}

// RegisterRoutes mounts all harness routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	limited := ratelimit.Middleware(s.Limiter)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("GET /{$}", s.shellHandler)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))

	mux.Handle("POST /invoke/{command}", limited(http.HandlerFunc(s.invokeHandler)))
	mux.HandleFunc("POST /preview", web.PreviewHandler)
	mux.HandleFunc("POST /harness/reset", s.resetHandler)
}

func (s *Server) shellHandler(w http.ResponseWriter, r *http.Request) {
	err := s.Renderer.Render(w, "harness/shell.html", map[string]any{
		"Title": "Cocobolo",
	})
	if err != nil {
		obs.From(r.Context()).Error("failed to render shell", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// invokeHandler is the HTTP face of the command bridge. Success (including
// structured failure objects) is a 200 with the raw value; thrown bridge
// errors become non-200 {"error": message}, mirroring a rejected invoke
// promise.
func (s *Server) invokeHandler(w http.ResponseWriter, r *http.Request) {
	command := r.PathValue("command")

	ctx := obs.WithCorrelation(r.Context(), obs.Correlation{
		RequestID: obs.NewRequestID(),
		Command:   command,
	})
	log := obs.From(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInvokeBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	if len(body) > 0 {
		var args map[string]any
		if json.Unmarshal(body, &args) == nil {
			log.Debug("invoke", "args", obs.RedactArgs(args))
		}
	} else {
		log.Debug("invoke")
	}

	start := time.Now()
	value, err := s.Bridge.Invoke(ctx, command, body)
	if err != nil {
		code := errs.CodeOf(err)
		log.Debug("invoke rejected", "code", string(code), "elapsed", time.Since(start))
		writeJSON(w, errs.HTTPStatus(code), map[string]string{"error": errs.MessageOf(err)})
		return
	}

	log.Debug("invoke resolved", "elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, map[string]any{"value": value})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.Bridge.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
