package storage_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/textvec/internal/storage"
)

func TestFileStorage(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	report := &storage.Report{
		Name:         "pasta",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Lowercase:    true,
		FeatureNames: []string{"a", "b"},
		Counts:       [][]int{{2, 1}},
		TF:           [][]float64{{2.0 / 3.0, 1.0 / 3.0}},
		IDF:          []float64{1, 1},
	}

	require.NoError(t, fs.Save(report))

	loaded, err := fs.Get("pasta")
	require.NoError(t, err)
	assert.Equal(t, report.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, report.Counts, loaded.Counts)
	assert.InDeltaSlice(t, report.TF[0], loaded.TF[0], 1e-15)
	assert.True(t, report.CreatedAt.Equal(loaded.CreatedAt))
	assert.Nil(t, loaded.TFIDF)
}

func TestFileStorage_List(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Save(&storage.Report{Name: "second"}))
	require.NoError(t, fs.Save(&storage.Report{Name: "first_run"}))
	require.NoError(t, fs.Save(&storage.Report{Name: "First-run"}))

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"First-run", "first_run", "second"}, names)
}

func TestFileStorage_DistinctNames(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.Save(&storage.Report{Name: "run_1", FeatureNames: []string{"first"}}))
	require.NoError(t, fs.Save(&storage.Report{Name: "run-1", FeatureNames: []string{"second"}}))

	err = fs.Save(&storage.Report{Name: "run.1", FeatureNames: []string{"third"}})
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	loaded, err := fs.Get("run_1")
	require.NoError(t, err)
	assert.Equal(t, "run_1", loaded.Name)
	assert.Equal(t, []string{"first"}, loaded.FeatureNames)

	_, err = fs.Get("run.1")
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run_1"}, names)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"Simple", "pasta", true},
		{"Dash and underscore", "run-1_b", true},
		{"Empty", "", false},
		{"Dot", "run.1", false},
		{"Space", "first run", false},
		{"Path", "../etc", false},
		{"Non-ASCII", "данные", false},
		{"Too long", strings.Repeat("a", 101), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.ValidateName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, storage.ErrInvalidName)
			}
		})
	}
}

func TestGetNonExistent(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Get("missing")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)
}

func TestSaveWithoutName(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, fs.Save(&storage.Report{}), storage.ErrInvalidName)
}
