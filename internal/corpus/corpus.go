// Package corpus gathers documents for vectorization from inline text, local
// files and web pages. Document order is preserved across all sources.
package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/textvec/internal/fetcher"
)

// ErrEmptyCorpus is returned when no source produced a document
var ErrEmptyCorpus = errors.New("corpus is empty")

// Document is one entry of a corpus
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Source yields documents in a stable order
type Source interface {
	Load(ctx context.Context) ([]Document, error)
}

// Texts returns the document texts in corpus order
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// Load reads every source in turn and concatenates their documents
func Load(ctx context.Context, logger *logrus.Entry, sources ...Source) ([]Document, error) {
	var docs []Document
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"source":    fmt.Sprintf("%T", src),
				"documents": len(loaded),
			}).Debug("Loaded corpus source")
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	return docs, nil
}

// Inline serves documents given directly as strings
type Inline []string

func (s Inline) Load(ctx context.Context) ([]Document, error) {
	docs := make([]Document, len(s))
	for i, text := range s {
		docs[i] = Document{ID: fmt.Sprintf("inline:%d", i), Text: text}
	}
	return docs, nil
}

// LineFile treats every non-blank line of a file as one document
type LineFile string

func (s LineFile) Load(ctx context.Context) ([]Document, error) {
	f, err := os.Open(string(s))
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{ID: fmt.Sprintf("%s:%d", s, line), Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return docs, nil
}

// Dir treats every text or HTML file in a directory as one document, in
// file name order. Subdirectories are not visited.
type Dir string

func (s Dir) Load(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(string(s))
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(string(s), entry.Name())

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, Document{ID: path, Text: string(data)})
		case ".html", ".htm":
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			title, text, err := fetcher.ParseHTML(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			docs = append(docs, Document{ID: path, Title: title, Text: text})
		}
	}
	return docs, nil
}

// PageFetcher is the part of fetcher.Fetcher used by URLs
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// URLs fetches every page and uses its visible text as a document
type URLs struct {
	Fetcher PageFetcher
	List    []string
}

func (s URLs) Load(ctx context.Context) ([]Document, error) {
	docs := make([]Document, 0, len(s.List))
	for _, u := range s.List {
		page, err := s.Fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", u, err)
		}
		docs = append(docs, Document{ID: page.URL, Title: page.Title, Text: page.Text})
	}
	return docs, nil
}
