package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
	"github.com/JonMunkholm/rowrelay/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// registerRequest is the JSON body of a registration request.
type registerRequest struct {
	Data       string          `json:"base64data"`
	Service    string          `json:"service"`
	Endpoint   string          `json:"endpoint"`
	Structure  json.RawMessage `json:"structure"`
	Complement any             `json:"complement"`
}

// handleRegister decodes the request, runs the batch and answers with the
// per-row accounting.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRegisterRequest(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, err := s.service.Register(r.Context(), core.BatchRequest{
		Data:       req.Data,
		Service:    req.Service,
		Endpoint:   req.Endpoint,
		Structure:  req.Structure,
		Complement: req.Complement,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("X-Batch-ID", report.ID)
	writeEnvelope(w, reportEnvelope(report))
}

func (s *Server) decodeRegisterRequest(w http.ResponseWriter, r *http.Request) (*registerRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Batch.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", core.ErrInvalidBody)
	}

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &req, nil
}

// reportEnvelope maps a finished batch to 201 (no failures) or 206. Success
// is false only when not a single row went through.
func reportEnvelope(report *core.BatchReport) envelope {
	result := report.Result

	if report.Status() == core.BatchComplete {
		return envelope{
			Success: true,
			Status:  http.StatusCreated,
			Message: core.MsgProcessed,
			Data:    &result,
		}
	}

	env := envelope{
		Success: len(result.Correctos) > 0,
		Status:  http.StatusPartialContent,
		Message: core.MsgPartial,
		Data:    &result,
	}
	if !env.Success {
		env.Message = core.MsgNoneProcessed
	}
	return env
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, envelope{Success: true, Status: http.StatusOK, Message: core.MsgOK})
}

// healthResponse reports liveness and batch slot usage.
type healthResponse struct {
	Status  string                  `json:"status"`
	Batches core.BatchLimiterStatus `json:"batches"`
	Time    time.Time               `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Batches: s.service.LimiterStatus(),
		Time:    time.Now().UTC(),
	})
}

const maxListLimit = 500

// batchSummary is one entry of the batch listing.
type batchSummary struct {
	ID         string           `json:"id"`
	URL        string           `json:"url"`
	Rows       int              `json:"rows"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Status     core.BatchStatus `json:"status"`
	StartedAt  time.Time        `json:"startedAt"`
	DurationMS int64            `json:"durationMs"`
}

func summarize(r core.BatchReport) batchSummary {
	return batchSummary{
		ID:         r.ID,
		URL:        r.URL,
		Rows:       r.Rows,
		Succeeded:  len(r.Result.Correctos),
		Failed:     len(r.Result.Erroneos),
		Status:     r.Status(),
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", s.cfg.History.RecentLimit), maxListLimit)

	reports, err := s.service.RecentReports(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]batchSummary, len(reports))
	for i, rep := range reports {
		out[i] = summarize(rep)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Report(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, core.ErrReportNotFound) {
		writeEnvelope(w, envelope{Status: http.StatusNotFound, Message: core.MsgNotFound})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBatchPage(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Report(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, core.ErrReportNotFound) {
		respondErrorHTML(w, r, http.StatusNotFound, core.MsgNotFound, "")
		return
	}
	if err != nil {
		msg := core.ClassifyError(err)
		slog.Error("load batch report", "error", err)
		respondErrorHTML(w, r, msg.Status, msg.Message, msg.Code)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.BatchReport(*report).Render(r.Context(), w); err != nil {
		slog.Error("render batch report", "id", report.ID, "error", err)
	}
}

// parseIntParam parses a positive integer query parameter, falling back to
// defaultVal when absent or invalid.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
