package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"presale-tracker/models"
	"presale-tracker/report"
	"presale-tracker/services"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 5000
)

type errorResponse struct {
	Error       string            `json:"error"`
	FirstRecord *models.RawRecord `json:"firstRecord,omitempty"`
}

type statsResponse struct {
	RunID       string              `json:"runId"`
	Source      string              `json:"source"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Stats       models.DatasetStats `json:"stats"`
	Projects    int                 `json:"projects"`
}

type overviewResponse struct {
	Overview *models.MarketOverview `json:"overview"`
	Prompt   string                 `json:"prompt"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, ok := s.Latest()
	render.JSON(w, r, map[string]any{"status": "ok", "hasData": ok})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeBodyError(w, r, err)
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		s.writeBodyError(w, r, err)
		return
	}

	s.logger.Info("[server] Upload %q (%d bytes)", hdr.Filename, len(buf))
	res, err := s.Ingest(buf, SourceUpload, false)
	s.respondRun(w, r, res, err)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		s.writeBodyError(w, r, err)
		return
	}
	if len(buf) == 0 {
		writeError(w, r, http.StatusBadRequest, "empty body")
		return
	}

	res, err := s.Ingest(buf, SourceText, true)
	s.respondRun(w, r, res, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.Refresh(r.Context())

	var empty *services.EmptyResultError
	switch {
	case err == nil:
		render.JSON(w, r, res)
	case errors.As(err, &empty):
		// stored regardless; the caller only gets a warning
		w.Header().Set("Warning", `199 - "no pre-sale records after filtering"`)
		render.JSON(w, r, res)
	case errors.Is(err, ErrRefreshInProgress):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		s.logger.Error("[server] Refresh failed: %v", err)
		writeError(w, r, http.StatusBadGateway, err.Error())
	}
}

// respondRun maps a user-supplied run outcome to a response.
func (s *Server) respondRun(w http.ResponseWriter, r *http.Request, res *models.AggregationResult, err error) {
	var (
		empty    *services.EmptyResultError
		pipeline *services.PipelineError
	)
	switch {
	case err == nil:
		render.JSON(w, r, res)
	case errors.Is(err, services.ErrNotCSV):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &empty):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "no pre-sale records after filtering", FirstRecord: &empty.First})
	case errors.As(err, &pipeline):
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: fmt.Sprintf("processing failed: %v", pipeline.Cause), FirstRecord: pipeline.First})
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

// latest writes a 404 and returns false when nothing has been loaded yet.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*models.AggregationResult, bool) {
	res, ok := s.Latest()
	if !ok {
		writeError(w, r, http.StatusNotFound, "no data loaded yet")
	}
	return res, ok
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	res, ok := s.latest(w, r)
	if !ok {
		return
	}
	projects := services.SearchProjects(res.Projects, r.URL.Query().Get("q"))
	if projects == nil {
		projects = []models.ProjectSummary{}
	}
	render.JSON(w, r, projects)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	res, ok := s.latest(w, r)
	if !ok {
		return
	}

	limit := defaultTransactionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTransactionLimit {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxTransactionLimit))
			return
		}
		limit = n
	}

	txs := services.SearchTransactions(res.Transactions, r.URL.Query().Get("q"))
	if len(txs) > limit {
		txs = txs[:limit]
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	render.JSON(w, r, txs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, ok := s.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, statsResponse{
		RunID:       res.RunID,
		Source:      res.Source,
		GeneratedAt: res.GeneratedAt,
		Stats:       res.Stats,
		Projects:    len(res.Projects),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.latest(w, r)
	if !ok {
		return
	}
	o := s.market.Overview(res.Projects)
	render.JSON(w, r, overviewResponse{Overview: o, Prompt: services.BuildAnalysisPrompt(o)})
}

func (s *Server) reportHTML(res *models.AggregationResult) (string, error) {
	return report.RenderString(report.Data{
		GeneratedAt: res.GeneratedAt,
		Stats:       res.Stats,
		Overview:    s.market.Overview(res.Projects),
		Projects:    res.Projects,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.latest(w, r)
	if !ok {
		return
	}
	html, err := s.reportHTML(res)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleReportPNG(w http.ResponseWriter, r *http.Request) {
	if s.snapshotter == nil {
		writeError(w, r, http.StatusNotImplemented, "report snapshots are disabled")
		return
	}
	res, ok := s.latest(w, r)
	if !ok {
		return
	}
	html, err := s.reportHTML(res)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	png, err := s.snapshotter.PNG(r.Context(), html)
	if err != nil {
		s.logger.Error("[server] Snapshot failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "snapshot failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="market-report-%s.png"`, res.GeneratedAt.Format("2006-01-02")))
	_, _ = w.Write(png)
}
