package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/textvec/internal/config"
	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/engine"
	"github.com/knowledge-engine/textvec/internal/fetcher"
	"github.com/knowledge-engine/textvec/internal/search"
	"github.com/knowledge-engine/textvec/internal/storage"
	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(report *storage.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) Get(name string) (*storage.Report, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Report), args.Error(1)
}

func (m *MockStorage) List() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.Page), args.Error(1)
}

var pastaCorpus = []string{
	"Crock Pot Pasta Never boil pasta again",
	"Pasta Pomodoro Fresh ingredients Parmesan to taste",
}

func setupEngine(t *testing.T) (*engine.Engine, *MockStorage) {
	cfg := config.Load()
	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)
	store := new(MockStorage)

	eng, err := engine.NewEngine(cfg, entry, store, search.NewVectorStore(true, false, entry))
	require.NoError(t, err)
	return eng, store
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "count", "tf", "idf", "tfidf"} {
		m, err := engine.ParseMode(s)
		assert.NoError(t, err)
		assert.Equal(t, engine.Mode(s), m)
	}
	_, err := engine.ParseMode("bm25")
	assert.Error(t, err)
}

func TestNewEngine_RequiresConfig(t *testing.T) {
	_, err := engine.NewEngine(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestVectorize_All(t *testing.T) {
	eng, _ := setupEngine(t)

	report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: pastaCorpus})
	require.NoError(t, err)

	assert.Len(t, report.FeatureNames, 12)
	assert.Equal(t, 2, report.Counts[0][2])
	require.Len(t, report.TF, 2)
	require.Len(t, report.IDF, 12)
	for i := range report.TFIDF {
		for j := range report.TFIDF[i] {
			assert.InDelta(t, report.TF[i][j]*report.IDF[j], report.TFIDF[i][j], 1e-12)
		}
	}
	assert.Equal(t, int64(1), eng.Snapshot().Vectorizations)
}

func TestVectorize_Modes(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()

	report, err := eng.Vectorize(ctx, engine.VectorizeRequest{Corpus: pastaCorpus, Mode: engine.ModeCount})
	require.NoError(t, err)
	assert.NotNil(t, report.Counts)
	assert.Nil(t, report.TF)
	assert.Nil(t, report.IDF)

	report, err = eng.Vectorize(ctx, engine.VectorizeRequest{Corpus: pastaCorpus, Mode: engine.ModeIDF})
	require.NoError(t, err)
	assert.Nil(t, report.Counts)
	assert.Len(t, report.IDF, 12)

	report, err = eng.Vectorize(ctx, engine.VectorizeRequest{Corpus: pastaCorpus, Mode: engine.ModeTF})
	require.NoError(t, err)
	assert.Len(t, report.TF, 2)
	assert.Nil(t, report.TFIDF)

	report, err = eng.Vectorize(ctx, engine.VectorizeRequest{Corpus: pastaCorpus, Mode: engine.ModeTFIDF})
	require.NoError(t, err)
	assert.Len(t, report.TFIDF, 2)
	assert.Nil(t, report.TF)
}

func TestVectorize_CaseSensitive(t *testing.T) {
	eng, _ := setupEngine(t)
	lowercase := false

	report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{
		Corpus:    []string{"Pasta pasta"},
		Lowercase: &lowercase,
		Mode:      engine.ModeCount,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pasta", "pasta"}, report.FeatureNames)
	assert.False(t, report.Lowercase)
}

func TestVectorize_Normalize(t *testing.T) {
	eng, _ := setupEngine(t)
	normalize := true

	report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{
		Corpus:    pastaCorpus,
		Normalize: &normalize,
		Mode:      engine.ModeTFIDF,
	})
	require.NoError(t, err)
	assert.True(t, report.Normalized)
	for _, row := range report.TFIDF {
		sq := 0.0
		for _, v := range row {
			sq += v * v
		}
		assert.InDelta(t, 1.0, sq, 1e-9)
	}
}

func TestVectorize_NormalizedOnlyWhenApplied(t *testing.T) {
	eng, _ := setupEngine(t)
	normalize := true

	tests := []struct {
		mode       engine.Mode
		normalized bool
	}{
		{engine.ModeAll, true},
		{engine.ModeTFIDF, true},
		{engine.ModeCount, false},
		{engine.ModeIDF, false},
		{engine.ModeTF, false},
	}

	for _, tt := range tests {
		t.Run("mode="+string(tt.mode), func(t *testing.T) {
			report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{
				Corpus:    pastaCorpus,
				Normalize: &normalize,
				Mode:      tt.mode,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.normalized, report.Normalized)
		})
	}
}

func TestVectorize_EmptyDocument(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: []string{"ok", "..."}})
	assert.ErrorIs(t, err, vectorizer.ErrEmptyDocument)
	assert.NotEmpty(t, eng.Snapshot().LastError)

	// counts tolerate empty documents
	report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: []string{"ok", "..."}, Mode: engine.ModeCount})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {0}}, report.Counts)
}

func TestVectorize_SaveAs(t *testing.T) {
	eng, store := setupEngine(t)
	store.On("Save", mock.MatchedBy(func(r *storage.Report) bool { return r.Name == "pasta" })).Return(nil)

	report, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: pastaCorpus, SaveAs: "pasta"})
	require.NoError(t, err)
	assert.Equal(t, "pasta", report.Name)
	store.AssertExpectations(t)
}

func TestVectorize_SaveFails(t *testing.T) {
	eng, store := setupEngine(t)
	store.On("Save", mock.Anything).Return(errors.New("disk full"))

	_, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: pastaCorpus, SaveAs: "pasta"})
	assert.ErrorContains(t, err, "disk full")
}

func TestVectorize_InvalidReportName(t *testing.T) {
	eng, store := setupEngine(t)

	_, err := eng.Vectorize(context.Background(), engine.VectorizeRequest{Corpus: pastaCorpus, SaveAs: "run.1"})
	assert.ErrorIs(t, err, storage.ErrInvalidName)
	store.AssertNotCalled(t, "Save", mock.Anything)
	assert.Equal(t, int64(0), eng.Snapshot().Vectorizations)
}

func TestVectorize_Cancelled(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Vectorize(ctx, engine.VectorizeRequest{Corpus: pastaCorpus})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexAndSearch(t *testing.T) {
	eng, _ := setupEngine(t)
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "https://example.com/pasta").
		Return(&fetcher.Page{URL: "https://example.com/pasta", Text: "pasta pomodoro recipe"}, nil)
	eng.Fetcher = f

	added, err := eng.Index(context.Background(),
		corpus.Inline{"go programming language", "banana fruit split"},
		eng.URLSource([]string{"https://example.com/pasta"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	results := eng.Search("pomodoro", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/pasta", results[0].Document.ID)
}

func TestIndex_EmptyCorpus(t *testing.T) {
	eng, _ := setupEngine(t)

	_, err := eng.Index(context.Background(), corpus.Inline{})
	assert.ErrorIs(t, err, corpus.ErrEmptyCorpus)
}
