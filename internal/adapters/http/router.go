package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
	"github.com/duomind/duomind/internal/observability/metrics"
)

type TrafficOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueTimeout   time.Duration
}

type Router struct {
	service   string
	ingest    ports.DocumentIngestor
	remover   ports.DocumentRemover
	reader    ports.DocumentReader
	retriever ports.PassageRetriever
	qa        ports.AnswerService
	metrics   *metrics.HTTPServerMetrics
	traffic   TrafficOptions
}

func NewRouter(
	service string,
	ingest ports.DocumentIngestor,
	remover ports.DocumentRemover,
	reader ports.DocumentReader,
	retriever ports.PassageRetriever,
	qa ports.AnswerService,
	serverMetrics *metrics.HTTPServerMetrics,
	traffic TrafficOptions,
) *Router {
	return &Router{
		service:   service,
		ingest:    ingest,
		remover:   remover,
		reader:    reader,
		retriever: retriever,
		qa:        qa,
		metrics:   serverMetrics,
		traffic:   traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/rag/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/rag/query", rt.query)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, rt.traffic.QueueTimeout)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.reader.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.reader.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.remover.Remove(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

type retrieveRequest struct {
	Query       string   `json:"query"`
	Mode        string   `json:"mode"`
	DocumentIDs []string `json:"document_ids"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := rt.retriever.Retrieve(r.Context(), req.Query, mode, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.service, "retrieve", string(mode), len(result.Entries), result.Degraded, time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":     mode,
		"degraded": result.Degraded,
		"entries":  result.Entries,
	})
}

type queryRequest struct {
	Question    string   `json:"question"`
	Mode        string   `json:"mode"`
	DocumentIDs []string `json:"document_ids"`
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	answer, err := rt.qa.Answer(r.Context(), req.Question, mode, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.service, "query", string(mode), len(answer.Sources), answer.Degraded, time.Since(start))
	}

	writeJSON(w, http.StatusOK, answer)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
