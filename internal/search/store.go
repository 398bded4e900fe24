package search

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

// SearchResult holds a matching document and its score
type SearchResult struct {
	Document *Document
	Score    float64
}

// VectorStore holds the indexed documents. Every AddDocuments refits the
// model on the full set so all vectors share one feature space.
type VectorStore struct {
	lowercase bool
	normalize bool
	logger    *logrus.Entry

	mu        sync.RWMutex
	documents []*Document
	model     *Model
}

func NewVectorStore(lowercase, normalize bool, logger *logrus.Entry) *VectorStore {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &VectorStore{
		lowercase: lowercase,
		normalize: normalize,
		logger:    logger,
		documents: make([]*Document, 0),
	}
}

// AddDocuments indexes docs and revectorizes the whole store. Documents with
// no tokens are skipped. It returns how many documents were added.
func (vs *VectorStore) AddDocuments(docs []*Document) (int, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	all := make([]*Document, len(vs.documents), len(vs.documents)+len(docs))
	copy(all, vs.documents)
	added := 0
	for _, d := range docs {
		if len(vectorizer.Tokenize(d.Content, vs.lowercase)) == 0 {
			vs.logger.WithField("id", d.ID).Warn("Skipping document without tokens")
			continue
		}
		all = append(all, d)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	rawTexts := make([]string, len(all))
	for i, d := range all {
		rawTexts[i] = d.Content
	}

	model, vectors, err := FitModel(rawTexts, vs.lowercase, vs.normalize)
	if err != nil {
		return 0, err
	}
	for i, d := range all {
		d.Vector = vectors[i]
	}

	vs.documents = all
	vs.model = model
	vs.logger.WithFields(logrus.Fields{
		"added":    added,
		"total":    len(all),
		"features": model.Vocabulary.Len(),
	}).Info("Indexed documents")
	return added, nil
}

// Len returns the number of indexed documents
func (vs *VectorStore) Len() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.documents)
}

// FeatureNames returns the feature columns of the current model
func (vs *VectorStore) FeatureNames() []string {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	if vs.model == nil {
		return nil
	}
	return vs.model.Vocabulary.Terms()
}

// Search finds the most similar documents to the query
func (vs *VectorStore) Search(query string, topK int) []SearchResult {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	if vs.model == nil {
		return nil
	}

	queryVector := vs.model.Transform(query)
	var results []SearchResult

	for _, doc := range vs.documents {
		score := CosineSimilarity(queryVector, doc.Vector)
		if score > 0 {
			results = append(results, SearchResult{
				Document: doc,
				Score:    score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

func normalize(v []float64) {
	if n := floats.Norm(v, 2); n > 0 {
		floats.Scale(1/n, v)
	}
}
