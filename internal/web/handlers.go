package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"metafetch/internal/config"
	"metafetch/internal/pipeline"
)

type RunRequest struct {
	Path         string `json:"path"`
	Mode         string `json:"mode"`
	ForceArt     bool   `json:"force_art"`
	NoArt        bool   `json:"no_art"`
	Gem          bool   `json:"gem"`
	NoLyrics     bool   `json:"no_lyrics"`
	KeepComments bool   `json:"keep_comments"`
}

type JobResponse struct {
	ID          string         `json:"id"`
	Path        string         `json:"path"`
	Mode        string         `json:"mode"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	Total       int            `json:"total"`
	Current     string         `json:"current,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Summary     map[string]int `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   string         `json:"created_at"`
	StartedAt   *string        `json:"started_at,omitempty"`
	CompletedAt *string        `json:"completed_at,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	mode := pipeline.ModeEnrich
	if req.Mode != "" {
		var err error
		if mode, err = pipeline.ParseMode(req.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	jobConfig := s.config
	jobConfig.MusicDir = config.ExpandHome(req.Path)
	jobConfig.ForceArt = req.ForceArt
	jobConfig.NoArt = req.NoArt
	jobConfig.Analyze = req.Gem
	jobConfig.NoLyrics = req.NoLyrics
	jobConfig.KeepComments = req.KeepComments
	jobConfig.DryRun = false
	mode.Apply(&jobConfig)

	if err := jobConfig.Validate(); err != nil {
		status := http.StatusBadRequest
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	job := s.jobMgr.CreateJob(mode, jobConfig)
	resp := jobToResponse(*job)
	s.logger.Info("Created job %s (%s) for %s", job.ID, mode, job.Path)

	s.wg.Add(1)
	go s.processJob(job.ID, jobConfig)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobMgr.GetJob(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobToResponse(job))
}

// handleDeleteJob cancels a pending or running job, or forgets a finished one.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.jobMgr.GetJob(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if job.Status.Finished() {
		if err := s.jobMgr.RemoveJob(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if job.Cancel != nil {
		job.Cancel()
	}
	s.jobMgr.UpdateJob(id, func(j *Job) {
		if !j.Status.Finished() {
			j.Status = StatusCancelled
		}
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(StatusCancelled)})
}

func (s *Server) processJob(id string, cfg config.Config) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.jobMgr.UpdateJob(id, func(j *Job) { j.Cancel = cancel })

	s.runMu.Lock()
	defer s.runMu.Unlock()

	if job, err := s.jobMgr.GetJob(id); err != nil || job.Status.Finished() {
		return
	}

	s.jobMgr.UpdateJob(id, func(j *Job) { j.Status = StatusRunning })
	s.logger.Info("Starting job %s", id)

	hooks := pipeline.Hooks{
		OnFilesFound: func(total int) {
			s.jobMgr.UpdateJob(id, func(j *Job) { j.Total = total })
		},
		OnProgress: func(path string) {
			s.jobMgr.UpdateJob(id, func(j *Job) {
				j.Progress++
				j.Current = path
			})
		},
		OnWarning: func(msg string) {
			s.jobMgr.UpdateJob(id, func(j *Job) { j.Warnings = append(j.Warnings, msg) })
		},
	}

	summary, err := s.run(ctx, cfg, s.logger, hooks)

	s.jobMgr.UpdateJob(id, func(j *Job) {
		j.Summary = summary
		j.Current = ""
		switch {
		case pipeline.IsCancelled(err), j.Status == StatusCancelled:
			j.Status = StatusCancelled
		case err != nil:
			j.Status = StatusFailed
			j.Error = err.Error()
		default:
			j.Status = StatusCompleted
		}
	})

	if err != nil {
		s.logger.Error("Job %s failed: %v", id, err)
		return
	}
	s.logger.Info("Job %s completed successfully", id)
}

func jobToResponse(job Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Path:      job.Path,
		Mode:      job.Mode.String(),
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Current:   job.Current,
		Warnings:  job.Warnings,
		Summary:   summaryCounts(job.Summary),
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}

func summaryCounts(s *pipeline.Summary) map[string]int {
	switch {
	case s == nil:
		return nil
	case s.Enrich != nil:
		return map[string]int{
			"total":             s.Enrich.Total,
			"success":           s.Enrich.Success,
			"skipped":           s.Enrich.Skipped,
			"failed":            s.Enrich.Failed,
			"already_processed": s.Enrich.AlreadyProcessed,
			"art_added":         s.Enrich.ArtAdded,
			"art_failed":        s.Enrich.ArtFailed,
			"lyrics_added":      s.Enrich.LyricsAdded,
		}
	case s.ArtOnly != nil:
		return map[string]int{
			"total":           s.ArtOnly.Total,
			"success":         s.ArtOnly.Success,
			"already_had_art": s.ArtOnly.AlreadyHadArt,
			"no_metadata":     s.ArtOnly.NoMetadata,
			"failed":          s.ArtOnly.Failed,
			"lyrics_added":    s.ArtOnly.LyricsAdded,
		}
	case s.Strip != nil:
		return map[string]int{
			"total":   s.Strip.Total,
			"success": s.Strip.Success,
			"failed":  s.Strip.Failed,
		}
	}
	return nil
}
