package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/engine"
	"github.com/knowledge-engine/textvec/internal/storage"
	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router *http.ServeMux
}

func NewServer(eng *engine.Engine, logger *logrus.Entry) *Server {
	s := &Server{
		Engine: eng,
		Logger: logger,
		Router: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/vectorize", s.handleVectorize)
	s.Router.HandleFunc("/api/v1/index", s.handleIndex)
	s.Router.HandleFunc("/api/v1/search", s.handleSearch)
	s.Router.HandleFunc("/api/v1/reports", s.handleListReports)
	s.Router.HandleFunc("/api/v1/reports/", s.handleGetReport)
	s.Router.HandleFunc("/api/v1/status", s.handleStatus)
}

func (s *Server) Start(addr string) error {
	s.Logger.Infof("Starting API Server on %s", addr)
	return http.ListenAndServe(addr, s.Router)
}

// Requests

type VectorizeRequest struct {
	Corpus    []string `json:"corpus"`
	Lowercase *bool    `json:"lowercase,omitempty"`
	Normalize *bool    `json:"normalize,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	SaveAs    string   `json:"save_as,omitempty"`
}

type IndexRequest struct {
	Documents []IndexDocument `json:"documents"`
	URLs      []string        `json:"urls"`
}

type IndexDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Responses

type ErrorResponse struct {
	Error string `json:"error"`
}

type VectorizeResponse struct {
	FeatureNames []string    `json:"feature_names"`
	Counts       [][]int     `json:"counts,omitempty"`
	TF           [][]float64 `json:"tf,omitempty"`
	IDF          []float64   `json:"idf,omitempty"`
	TFIDF        [][]float64 `json:"tfidf,omitempty"`
	SavedAs      string      `json:"saved_as,omitempty"`
}

type IndexResponse struct {
	Indexed int `json:"indexed"`
	Total   int `json:"total"`
}

type SearchResponse struct {
	Query   string             `json:"query"`
	Results []SearchResultView `json:"results"`
}

type SearchResultView struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
	Text  string  `json:"snippet"`
}

type ReportListResponse struct {
	Reports []string `json:"reports"`
}

type StatusResponse struct {
	DocumentsIndexed int    `json:"documents_indexed"`
	Features         int    `json:"features"`
	Vectorizations   int64  `json:"vectorizations"`
	LastError        string `json:"last_error,omitempty"`
	Uptime           string `json:"uptime"`
}

// Handlers

func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VectorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON: " + err.Error()})
		return
	}

	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	report, err := s.Engine.Vectorize(r.Context(), engine.VectorizeRequest{
		Corpus:    req.Corpus,
		Lowercase: req.Lowercase,
		Normalize: req.Normalize,
		Mode:      mode,
		SaveAs:    req.SaveAs,
	})
	if errors.Is(err, storage.ErrInvalidName) {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if errors.Is(err, vectorizer.ErrEmptyDocument) {
		jsonResponse(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.Logger.WithError(err).Error("Vectorization failed")
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	jsonResponse(w, http.StatusOK, VectorizeResponse{
		FeatureNames: report.FeatureNames,
		Counts:       report.Counts,
		TF:           report.TF,
		IDF:          report.IDF,
		TFIDF:        report.TFIDF,
		SavedAs:      report.Name,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	var sources []corpus.Source
	if len(req.Documents) > 0 {
		sources = append(sources, indexDocuments(req.Documents))
	}
	if len(req.URLs) > 0 {
		sources = append(sources, s.Engine.URLSource(req.URLs))
	}

	added, err := s.Engine.Index(r.Context(), sources...)
	if errors.Is(err, corpus.ErrEmptyCorpus) {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "documents or urls are required"})
		return
	}
	if err != nil {
		s.Logger.WithError(err).Error("Indexing failed")
		jsonResponse(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	jsonResponse(w, http.StatusOK, IndexResponse{
		Indexed: added,
		Total:   s.Engine.VectorStore.Len(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'q' is required"})
		return
	}

	topK := 0
	if k := r.URL.Query().Get("k"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Parameter 'k' must be a positive integer"})
			return
		}
		topK = n
	}

	hits := s.Engine.Search(query, topK)

	response := SearchResponse{
		Query:   query,
		Results: make([]SearchResultView, len(hits)),
	}

	for i, hit := range hits {
		response.Results[i] = SearchResultView{
			ID:    hit.Document.ID,
			Title: hit.Document.Title,
			Score: hit.Score,
			Text:  snippet(hit.Document.Content, snippetBytes),
		}
	}

	jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names, err := s.Engine.Storage.List()
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	jsonResponse(w, http.StatusOK, ReportListResponse{Reports: names})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	if name == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Report name is required"})
		return
	}

	report, err := s.Engine.Storage.Get(name)
	if errors.Is(err, storage.ErrReportNotFound) {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Engine.Snapshot()

	jsonResponse(w, http.StatusOK, StatusResponse{
		DocumentsIndexed: s.Engine.VectorStore.Len(),
		Features:         len(s.Engine.VectorStore.FeatureNames()),
		Vectorizations:   stats.Vectorizations,
		LastError:        stats.LastError,
		Uptime:           time.Since(stats.StartTime).Round(time.Second).String(),
	})
}

// indexDocuments adapts request documents to a corpus source
type indexDocuments []IndexDocument

func (d indexDocuments) Load(ctx context.Context) ([]corpus.Document, error) {
	docs := make([]corpus.Document, len(d))
	for i, doc := range d {
		docs[i] = corpus.Document{ID: doc.ID, Title: doc.Title, Text: doc.Content}
	}
	return docs, nil
}

const snippetBytes = 200

// snippet shortens txt to at most n bytes without splitting a UTF-8 sequence
func snippet(txt string, n int) string {
	if len(txt) <= n {
		return txt
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(txt[cut]) {
		cut--
	}
	return txt[:cut] + "..."
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
