package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"sync"

	"metafetch/internal/config"
	"metafetch/internal/logger"
	"metafetch/internal/pipeline"
)

//go:embed static
var staticFiles embed.FS

// RunFunc executes one pipeline run. pipeline.Run in production.
type RunFunc func(ctx context.Context, cfg config.Config, log *logger.Logger, hooks pipeline.Hooks) (*pipeline.Summary, error)

type Server struct {
	ctx    context.Context
	jobMgr *JobManager
	config config.Config
	logger *logger.Logger
	run    RunFunc

	// runMu serialises jobs: they share the caches and the ledger.
	runMu sync.Mutex
	wg    sync.WaitGroup
}

func NewServer(ctx context.Context, jobMgr *JobManager, cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		jobMgr: jobMgr,
		config: cfg,
		logger: log,
		run:    pipeline.Run,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServer(http.FS(static)))

	mux.HandleFunc("POST /api/runs", s.handleRun)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleDeleteJob)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

// Wait blocks until every started job has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
