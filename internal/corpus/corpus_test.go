package corpus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/fetcher"
)

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

func TestInline(t *testing.T) {
	docs, err := corpus.Inline{"first", "second"}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, corpus.Texts(docs))
	assert.Equal(t, "inline:1", docs[1].ID)
}

func TestLineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("Ave, Caesar, ave!\n\n   \nMorituri te salutant\n"), 0644))

	docs, err := corpus.LineFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ave, Caesar, ave!", "Morituri te salutant"}, corpus.Texts(docs))
	assert.Equal(t, path+":4", docs[1].ID)
}

func TestLineFile_Missing(t *testing.T) {
	_, err := corpus.LineFile(filepath.Join(t.TempDir(), "missing.txt")).Load(context.Background())
	assert.Error(t, err)
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second doc"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("<html><title>T</title><body><p>first  doc</p></body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"ignored":true}`), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0755))

	docs, err := corpus.Dir(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first doc", "second doc"}, corpus.Texts(docs))
}

func TestURLs(t *testing.T) {
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "https://a.example").Return(&fetcher.Page{URL: "https://a.example", Text: "page a"}, nil)
	f.On("Fetch", mock.Anything, "https://b.example").Return(&fetcher.Page{URL: "https://b.example", Text: "page b"}, nil)

	docs, err := corpus.URLs{Fetcher: f, List: []string{"https://a.example", "https://b.example"}}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"page a", "page b"}, corpus.Texts(docs))
	f.AssertExpectations(t)
}

func TestURLs_Error(t *testing.T) {
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, "https://blocked.example").Return(nil, fetcher.ErrDisallowed)

	_, err := corpus.URLs{Fetcher: f, List: []string{"https://blocked.example"}}.Load(context.Background())
	assert.ErrorIs(t, err, fetcher.ErrDisallowed)
}

func TestLoad_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0644))

	docs, err := corpus.Load(context.Background(), nil, corpus.Inline{"inline"}, corpus.LineFile(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"inline", "from file"}, corpus.Texts(docs))
}

func TestLoad_Empty(t *testing.T) {
	_, err := corpus.Load(context.Background(), nil, corpus.Inline{})
	assert.True(t, errors.Is(err, corpus.ErrEmptyCorpus))
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := corpus.Load(ctx, nil, corpus.Inline{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
