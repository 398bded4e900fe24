package search

// Document represents a searchable item
type Document struct {
	ID      string
	Content string
	Title   string // Metadata
	Vector  []float64
}
