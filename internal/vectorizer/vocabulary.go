package vectorizer

// Vocabulary maps tokens to feature columns. Indices are handed out in
// first-seen order starting at 0 and never reused.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary creates an empty vocabulary
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		index: make(map[string]int),
	}
}

// BuildVocabulary scans the tokenized documents in order and indexes every new token
func BuildVocabulary(docs [][]string) *Vocabulary {
	v := NewVocabulary()
	for _, tokens := range docs {
		for _, token := range tokens {
			v.Add(token)
		}
	}
	return v
}

// Add registers term if unseen and returns its index
func (v *Vocabulary) Add(term string) int {
	if idx, ok := v.index[term]; ok {
		return idx
	}
	idx := len(v.terms)
	v.terms = append(v.terms, term)
	v.index[term] = idx
	return idx
}

// Index returns the column of term
func (v *Vocabulary) Index(term string) (int, bool) {
	idx, ok := v.index[term]
	return idx, ok
}

// Terms returns the feature names ordered by index. The slice is a copy.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}
