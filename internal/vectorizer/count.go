package vectorizer

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fit is the outcome of one fit call. It is never mutated after creation.
type Fit struct {
	Vocabulary   *Vocabulary
	FeatureNames []string
	Counts       [][]int
	Lowercase    bool
}

// Rows returns the number of documents
func (f *Fit) Rows() int {
	return len(f.Counts)
}

// Cols returns the number of features
func (f *Fit) Cols() int {
	return len(f.FeatureNames)
}

// CountVectorizer builds term-document count matrices
type CountVectorizer struct {
	lowercase bool
	logger    *logrus.Entry

	mu   sync.Mutex
	last *Fit
}

// Option configures a vectorizer
type Option func(*options)

type options struct {
	lowercase   bool
	logger      *logrus.Entry
	transformer Transformer
}

func defaultOptions() options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return options{
		lowercase:   true,
		logger:      logrus.NewEntry(l),
		transformer: TfidfTransformer{},
	}
}

// WithLowercase controls case folding before tokenizing. Default true.
func WithLowercase(lowercase bool) Option {
	return func(o *options) {
		o.lowercase = lowercase
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTransformer replaces the count → weight transform of a TfidfVectorizer
func WithTransformer(t Transformer) Option {
	return func(o *options) {
		if t != nil {
			o.transformer = t
		}
	}
}

func NewCountVectorizer(opts ...Option) *CountVectorizer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &CountVectorizer{
		lowercase: o.lowercase,
		logger:    o.logger,
	}
}

// Lowercase reports the current case folding setting
func (cv *CountVectorizer) Lowercase() bool {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.lowercase
}

// Fit tokenizes the corpus, builds the vocabulary and counts every feature per
// document. It does not touch the vectorizer's cached state.
func (cv *CountVectorizer) Fit(corpus []string) *Fit {
	return fitCorpus(corpus, cv.Lowercase())
}

func fitCorpus(corpus []string, lowercase bool) *Fit {
	docs := TokenizeCorpus(corpus, lowercase)
	vocab := BuildVocabulary(docs)

	counts := make([][]int, len(docs))
	for i, tokens := range docs {
		row := make([]int, vocab.Len())
		for _, token := range tokens {
			idx, _ := vocab.Index(token)
			row[idx]++
		}
		counts[i] = row
	}

	return &Fit{
		Vocabulary:   vocab,
		FeatureNames: vocab.Terms(),
		Counts:       counts,
		Lowercase:    lowercase,
	}
}

// FitTransform fits the corpus, remembers the result for FeatureNames and
// returns the count matrix.
func (cv *CountVectorizer) FitTransform(corpus []string) [][]int {
	return cv.fitAndStore(corpus, cv.Lowercase()).Counts
}

// FitTransformLowercase is FitTransform with an explicit case folding flag.
// The flag becomes the vectorizer's setting for later calls.
func (cv *CountVectorizer) FitTransformLowercase(corpus []string, lowercase bool) [][]int {
	cv.mu.Lock()
	cv.lowercase = lowercase
	cv.mu.Unlock()
	return cv.fitAndStore(corpus, lowercase).Counts
}

func (cv *CountVectorizer) fitAndStore(corpus []string, lowercase bool) *Fit {
	fit := fitCorpus(corpus, lowercase)

	cv.mu.Lock()
	cv.last = fit
	cv.mu.Unlock()

	cv.logger.WithFields(logrus.Fields{
		"documents": fit.Rows(),
		"features":  fit.Cols(),
	}).Debug("Fitted count vectorizer")
	return fit
}

// LastFit returns the most recent fit, or nil
func (cv *CountVectorizer) LastFit() *Fit {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.last
}

// FeatureNames returns the features of the most recent fit. Before the first
// fit it logs a warning and returns false. A fit that found no tokens logs
// the same warning but still returns true.
func (cv *CountVectorizer) FeatureNames() ([]string, bool) {
	fit := cv.LastFit()
	if fit == nil {
		cv.logger.Warn("No features available: call FitTransform first")
		return nil, false
	}
	if len(fit.FeatureNames) == 0 {
		cv.logger.WithField("documents", fit.Rows()).Warn("No features available: the corpus has no tokens")
	}
	out := make([]string, len(fit.FeatureNames))
	copy(out, fit.FeatureNames)
	return out, true
}

// TFTransform fits the corpus and returns its term-frequency matrix
func (cv *CountVectorizer) TFTransform(corpus []string) ([][]float64, error) {
	return TF(cv.FitTransform(corpus))
}

// IDFTransform fits the corpus and returns the smoothed IDF of every feature
func (cv *CountVectorizer) IDFTransform(corpus []string) []float64 {
	return IDF(cv.FitTransform(corpus))
}
