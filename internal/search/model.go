package search

import (
	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

// Model is a TF-IDF weighting fitted on the indexed documents. It projects
// arbitrary text onto the fitted feature columns.
type Model struct {
	Vocabulary *vectorizer.Vocabulary
	IDF        []float64
	Lowercase  bool
	Normalize  bool
}

// FitModel fits a model on docs and returns it with the weighted document rows
func FitModel(docs []string, lowercase, normalize bool) (*Model, [][]float64, error) {
	opts := []vectorizer.Option{vectorizer.WithLowercase(lowercase)}
	if normalize {
		opts = append(opts, vectorizer.WithTransformer(vectorizer.L2Normalizer{}))
	}

	analysis, err := vectorizer.NewTfidfVectorizer(opts...).Analyze(docs)
	if err != nil {
		return nil, nil, err
	}

	return &Model{
		Vocabulary: analysis.Vocabulary,
		IDF:        analysis.IDF,
		Lowercase:  lowercase,
		Normalize:  normalize,
	}, analysis.TFIDF, nil
}

// Transform converts text to a vector over the fitted features. Tokens the
// model has never seen are ignored.
func (m *Model) Transform(text string) []float64 {
	vector := make([]float64, m.Vocabulary.Len())
	known := 0
	for _, token := range vectorizer.Tokenize(text, m.Lowercase) {
		if idx, ok := m.Vocabulary.Index(token); ok {
			vector[idx]++
			known++
		}
	}
	if known == 0 {
		return vector
	}

	for j := range vector {
		vector[j] = vector[j] / float64(known) * m.IDF[j]
	}
	if m.Normalize {
		normalize(vector)
	}
	return vector
}
