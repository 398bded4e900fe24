package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/textvec/internal/config"
	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/fetcher"
	"github.com/knowledge-engine/textvec/internal/search"
	"github.com/knowledge-engine/textvec/internal/storage"
	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

// Mode selects which matrices a vectorization produces
type Mode string

const (
	ModeAll   Mode = ""
	ModeCount Mode = "count"
	ModeTF    Mode = "tf"
	ModeIDF   Mode = "idf"
	ModeTFIDF Mode = "tfidf"
)

// ParseMode validates a mode name. The empty string selects every matrix.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAll, ModeCount, ModeTF, ModeIDF, ModeTFIDF:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// VectorizeRequest describes one vectorization. Nil flags fall back to config.
type VectorizeRequest struct {
	Corpus      []string
	DocumentIDs []string
	Lowercase   *bool
	Normalize   *bool
	Mode        Mode
	SaveAs      string
}

// Engine orchestrates corpus loading, vectorization, storage and indexing
type Engine struct {
	Config      *config.Config
	Logger      *logrus.Entry
	Fetcher     corpus.PageFetcher
	Storage     storage.ReportStorage
	VectorStore *search.VectorStore

	mu    sync.RWMutex
	Stats EngineStats
}

type EngineStats struct {
	Vectorizations int64
	LastError      string
	StartTime      time.Time
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, store storage.ReportStorage, vStore *search.VectorStore) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	var robots *fetcher.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = fetcher.NewRobotsChecker(cfg.Fetch.UserAgent, cfg.Fetch.Timeout, logger)
	}
	ft := fetcher.NewFetcher(fetcher.Options{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Robots:       robots,
	})

	return &Engine{
		Config:      cfg,
		Logger:      logger,
		Fetcher:     ft,
		Storage:     store,
		VectorStore: vStore,
		Stats: EngineStats{
			StartTime: time.Now(),
		},
	}, nil
}

// Vectorize runs the vectorizer over the request corpus and optionally stores
// the result under req.SaveAs.
func (e *Engine) Vectorize(ctx context.Context, req VectorizeRequest) (*storage.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.SaveAs != "" {
		if err := storage.ValidateName(req.SaveAs); err != nil {
			e.recordError(err)
			return nil, err
		}
	}

	lowercase := e.Config.Vectorizer.Lowercase
	if req.Lowercase != nil {
		lowercase = *req.Lowercase
	}
	normalize := e.Config.Vectorizer.Normalize
	if req.Normalize != nil {
		normalize = *req.Normalize
	}

	report, err := buildReport(req, lowercase, normalize, e.Logger)
	if err != nil {
		e.recordError(err)
		return nil, err
	}

	if req.SaveAs != "" {
		report.Name = req.SaveAs
		if err := e.Storage.Save(report); err != nil {
			e.recordError(err)
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	e.mu.Lock()
	e.Stats.Vectorizations++
	e.mu.Unlock()

	e.Logger.WithFields(logrus.Fields{
		"documents": len(req.Corpus),
		"features":  len(report.FeatureNames),
		"mode":      string(req.Mode),
	}).Info("Vectorized corpus")
	return report, nil
}

func buildReport(req VectorizeRequest, lowercase, normalize bool, logger *logrus.Entry) (*storage.Report, error) {
	report := &storage.Report{
		CreatedAt:   time.Now().UTC(),
		Lowercase:   lowercase,
		DocumentIDs: req.DocumentIDs,
	}

	opts := []vectorizer.Option{
		vectorizer.WithLowercase(lowercase),
		vectorizer.WithLogger(logger),
	}

	switch req.Mode {
	case ModeCount, ModeIDF:
		// neither needs term frequencies, so empty documents are fine here
		cv := vectorizer.NewCountVectorizer(opts...)
		counts := cv.FitTransform(req.Corpus)
		report.FeatureNames, _ = cv.FeatureNames()
		if req.Mode == ModeCount {
			report.Counts = counts
		} else {
			report.IDF = vectorizer.IDF(counts)
		}
		return report, nil
	}

	if normalize && req.Mode != ModeTF {
		report.Normalized = true
		opts = append(opts, vectorizer.WithTransformer(vectorizer.L2Normalizer{}))
	}
	analysis, err := vectorizer.NewTfidfVectorizer(opts...).Analyze(req.Corpus)
	if err != nil {
		return nil, err
	}

	report.FeatureNames = analysis.FeatureNames
	switch req.Mode {
	case ModeTF:
		report.TF = analysis.TF
	case ModeTFIDF:
		report.TFIDF = analysis.TFIDF
	default:
		report.Counts = analysis.Counts
		report.TF = analysis.TF
		report.IDF = analysis.IDF
		report.TFIDF = analysis.TFIDF
	}
	return report, nil
}

// LoadCorpus gathers documents from the given sources
func (e *Engine) LoadCorpus(ctx context.Context, sources ...corpus.Source) ([]corpus.Document, error) {
	return corpus.Load(ctx, e.Logger, sources...)
}

// URLSource wraps urls in a source backed by the engine's fetcher
func (e *Engine) URLSource(urls []string) corpus.Source {
	return corpus.URLs{Fetcher: e.Fetcher, List: urls}
}

// Index loads the sources and adds their documents to the search index
func (e *Engine) Index(ctx context.Context, sources ...corpus.Source) (int, error) {
	docs, err := e.LoadCorpus(ctx, sources...)
	if err != nil {
		e.recordError(err)
		return 0, err
	}

	items := make([]*search.Document, len(docs))
	for i, d := range docs {
		items[i] = &search.Document{ID: d.ID, Title: d.Title, Content: d.Text}
	}

	added, err := e.VectorStore.AddDocuments(items)
	if err != nil {
		e.recordError(err)
		return 0, fmt.Errorf("index documents: %w", err)
	}
	return added, nil
}

// Search ranks indexed documents against query. topK <= 0 uses the configured default.
func (e *Engine) Search(query string, topK int) []search.SearchResult {
	if topK <= 0 {
		topK = e.Config.Search.TopK
	}
	return e.VectorStore.Search(query, topK)
}

// Snapshot returns a copy of the current stats
func (e *Engine) Snapshot() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Stats
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	e.Stats.LastError = err.Error()
	e.mu.Unlock()
}
