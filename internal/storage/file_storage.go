package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	// ErrReportNotFound is returned when no report is stored under a name
	ErrReportNotFound = errors.New("report not found")
	// ErrInvalidName is returned for report names that cannot be used as file names
	ErrInvalidName = errors.New("invalid report name")
)

const maxNameLength = 100

// Report is a persisted vectorization result
type Report struct {
	Name         string      `json:"name"`
	CreatedAt    time.Time   `json:"created_at"`
	Lowercase    bool        `json:"lowercase"`
	Normalized   bool        `json:"normalized"`
	DocumentIDs  []string    `json:"document_ids,omitempty"`
	FeatureNames []string    `json:"feature_names"`
	Counts       [][]int     `json:"counts,omitempty"`
	TF           [][]float64 `json:"tf,omitempty"`
	IDF          []float64   `json:"idf,omitempty"`
	TFIDF        [][]float64 `json:"tfidf,omitempty"`
}

// ReportStorage defines the interface for saving vectorization reports
type ReportStorage interface {
	Save(report *Report) error
	Get(name string) (*Report, error)
	List() ([]string, error)
	Close() error
}

// FileStorage implements ReportStorage using the local file system
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

// Save writes the report to a JSON file, replacing any report of the same name
func (fs *FileStorage) Save(report *Report) error {
	if err := ValidateName(report.Name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := filepath.Join(fs.baseDir, report.Name+".json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Get retrieves a report from disk
func (fs *FileStorage) Get(name string) (*Report, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	path := filepath.Join(fs.baseDir, name+".json")

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// List returns the names of the stored reports, sorted
func (fs *FileStorage) List() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name, err := readName(filepath.Join(fs.baseDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for file storage
func (fs *FileStorage) Close() error {
	return nil
}

// ValidateName accepts names made of ASCII letters, digits, '-' and '_'.
// Report names map one to one onto file names.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLength)
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("%w: %q may only contain letters, digits, '-' and '_'", ErrInvalidName, name)
	}
	return nil
}

func readName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	var header struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return "", fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return header.Name, nil
}
