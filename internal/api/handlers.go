// Package api exposes the scoring service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"closer-insights-go/internal/actionable"
	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/dataset"
	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/pipeline"
	"closer-insights-go/internal/processor"
	"closer-insights-go/internal/types"
)

const (
	defaultTopN  = 10
	maxBodyBytes = 8 << 20
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Server struct {
	processor   *processor.Processor
	queue       *pipeline.Queue
	store       *Store
	datasetPath string
	log         *logger.Logger
}

func NewServer(p *processor.Processor, q *pipeline.Queue, s *Store, datasetPath string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{processor: p, queue: q, store: s, datasetPath: datasetPath, log: log}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("POST /score", s.score)
	mux.HandleFunc("POST /queue", s.enqueue)
	mux.HandleFunc("GET /results", s.results)
	mux.HandleFunc("GET /objections/stats", s.objectionStats)
	mux.HandleFunc("POST /batch", s.batch)
	mux.HandleFunc("GET /export", s.export)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type callRequest struct {
	CallID      string           `json:"call_id"`
	RepName     string           `json:"rep_name"`
	CallContext string           `json:"call_context"`
	Direction   string           `json:"direction"`
	Transcript  string           `json:"transcript"`
	ASR         *types.ASRResult `json:"asr"`
	AudioURL    string           `json:"audio_url"`
}

func (c callRequest) toCall() (processor.Call, error) {
	cc, err := types.ParseCallContext(c.CallContext)
	if err != nil {
		return processor.Call{}, err
	}
	dir, err := types.ParseCallDirection(c.Direction)
	if err != nil {
		return processor.Call{}, err
	}
	if strings.TrimSpace(c.Transcript) == "" && c.ASR == nil && c.AudioURL == "" {
		return processor.Call{}, processor.ErrNoTranscript
	}
	return processor.Call{
		CallID:      c.CallID,
		RepName:     c.RepName,
		CallContext: cc,
		Direction:   dir,
		Transcript:  c.Transcript,
		ASR:         c.ASR,
		AudioURL:    c.AudioURL,
	}, nil
}

func (s *Server) decodeCall(w http.ResponseWriter, r *http.Request) (processor.Call, bool) {
	var req callRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return processor.Call{}, false
	}
	call, err := req.toCall()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return processor.Call{}, false
	}
	return call, true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "score")
	call, ok := s.decodeCall(w, r)
	if !ok {
		return
	}

	rep, err := s.processor.Process(r.Context(), call)
	if err != nil {
		reqLog.WithError(err).Warn("processing failed")
		status := http.StatusBadGateway
		if errors.Is(err, processor.ErrNoTranscript) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	s.store.Put(rep)
	reqLog.WithField("call_id", rep.CallID).WithField("duration_ms", rep.DurationMs).Info("call scored")
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "queue")
	call, ok := s.decodeCall(w, r)
	if !ok {
		return
	}
	if call.CallID == "" {
		call.CallID = uuid.New().String()
	}

	added, err := s.queue.Enqueue(call)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reqLog.WithField("call_id", call.CallID).WithField("added", added).Info("call queued")
	job, _ := s.queue.Job(call.CallID)
	writeJSON(w, http.StatusAccepted, map[string]any{"call_id": call.CallID, "queued": added, "job": job})
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("call_id")
	if callID == "" {
		writeJSON(w, http.StatusOK, s.store.List())
		return
	}
	if job, ok := s.queue.Job(callID); ok && job.Status != pipeline.StatusDone {
		writeJSON(w, http.StatusOK, map[string]any{"call_id": callID, "job": job})
		return
	}
	if rep, ok := s.store.Get(callID); ok {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	writeError(w, http.StatusNotFound, "unknown call_id")
}

func (s *Server) objectionStats(w http.ResponseWriter, r *http.Request) {
	top := defaultTopN
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = n
	}
	report := aggregator.BuildObjectionReport(s.store.ObjectionCalls(), top)
	writeJSON(w, http.StatusOK, map[string]any{
		"report":      report,
		"action_card": actionable.ForTeam(report),
	})
}

type batchResponse struct {
	Enqueued int      `json:"enqueued"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "batch")

	var (
		records []types.CallRecord
		err     error
	)
	switch {
	case r.ContentLength != 0:
		records, err = dataset.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			reqLog.WithError(err).Warn("uploaded workbook unreadable")
			writeError(w, http.StatusBadRequest, "could not read uploaded workbook")
			return
		}
	case s.datasetPath == "":
		writeError(w, http.StatusBadRequest, "upload a workbook or configure DATASET_PATH")
		return
	default:
		records, err = dataset.Load(s.datasetPath)
		if err != nil {
			reqLog.WithError(err).Error("configured dataset unreadable")
			writeError(w, http.StatusInternalServerError, "configured dataset unavailable")
			return
		}
	}

	resp := batchResponse{Errors: []string{}}
	for _, rec := range records {
		call, err := processor.CallFromRecord(rec)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", rec.CallID, err))
			continue
		}
		added, err := s.queue.Enqueue(call)
		switch {
		case err != nil:
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", rec.CallID, err))
		case added:
			resp.Enqueued++
		default:
			resp.Skipped++
		}
	}
	reqLog.WithField("enqueued", resp.Enqueued).WithField("skipped", resp.Skipped).Info("batch queued")
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	reports := s.store.List()
	objections := aggregator.BuildObjectionReport(s.store.ObjectionCalls(), defaultTopN)

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="closer-scores.xlsx"`)
	if err := dataset.Export(w, reports, objections); err != nil {
		s.log.WithRequest(r).WithError(err).Error("export failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
