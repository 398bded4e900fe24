package vectorizer

import (
	"github.com/sirupsen/logrus"
)

// TfidfVectorizer composes a CountVectorizer with a Transformer
type TfidfVectorizer struct {
	counter     *CountVectorizer
	transformer Transformer
	logger      *logrus.Entry
}

// Analysis holds every artefact derived from a single count matrix
type Analysis struct {
	*Fit
	TF    [][]float64
	IDF   []float64
	TFIDF [][]float64
}

func NewTfidfVectorizer(opts ...Option) *TfidfVectorizer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TfidfVectorizer{
		counter: &CountVectorizer{
			lowercase: o.lowercase,
			logger:    o.logger,
		},
		transformer: o.transformer,
		logger:      o.logger,
	}
}

// FitTransform fits the corpus once and hands the count matrix to the transformer
func (tv *TfidfVectorizer) FitTransform(corpus []string) ([][]float64, error) {
	counts := tv.counter.FitTransform(corpus)
	return tv.transformer.Transform(counts)
}

// FeatureNames returns the features of the most recent fit
func (tv *TfidfVectorizer) FeatureNames() ([]string, bool) {
	return tv.counter.FeatureNames()
}

// Analyze fits the corpus once and derives TF, IDF and the transformer output
// from that one count matrix. TF is always part of the result, so an empty
// document fails with ErrEmptyDocument even when the configured transformer
// would accept it; FitTransform only runs the transformer.
func (tv *TfidfVectorizer) Analyze(corpus []string) (*Analysis, error) {
	fit := tv.counter.fitAndStore(corpus, tv.counter.Lowercase())

	tf, err := TF(fit.Counts)
	if err != nil {
		return nil, err
	}
	idf := IDF(fit.Counts)

	var weighted [][]float64
	if _, plain := tv.transformer.(TfidfTransformer); plain {
		weighted = Weight(tf, idf)
	} else {
		weighted, err = tv.transformer.Transform(fit.Counts)
		if err != nil {
			return nil, err
		}
	}

	tv.logger.WithFields(logrus.Fields{
		"documents": fit.Rows(),
		"features":  fit.Cols(),
	}).Debug("Analyzed corpus")

	return &Analysis{
		Fit:   fit,
		TF:    tf,
		IDF:   idf,
		TFIDF: weighted,
	}, nil
}
