package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/knowledge-engine/textvec/internal/config"
	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/engine"
	"github.com/knowledge-engine/textvec/internal/search"
	"github.com/knowledge-engine/textvec/internal/storage"
	"github.com/knowledge-engine/textvec/internal/vectorizer"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var texts, urls listFlag
	file := flag.String("file", "", "corpus file, one document per line")
	dir := flag.String("dir", "", "directory of .txt/.html documents")
	flag.Var(&texts, "text", "inline document (repeatable)")
	flag.Var(&urls, "url", "web page to fetch as a document (repeatable)")
	mode := flag.String("mode", "", "count, tf, idf or tfidf (default: all)")
	lowercase := flag.Bool("lowercase", true, "fold case before tokenizing")
	normalize := flag.Bool("normalize", false, "L2-normalize TF-IDF rows")
	precision := flag.Int("precision", 3, "decimal places for floats")
	save := flag.String("save", "", "store the result as a named report")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	entry := logger.WithField("service", "textvec-cli")

	m, err := engine.ParseMode(*mode)
	if err != nil {
		entry.Fatal(err)
	}

	var sources []corpus.Source
	if len(texts) > 0 {
		sources = append(sources, corpus.Inline(texts))
	}
	if *file != "" {
		sources = append(sources, corpus.LineFile(*file))
	}
	if *dir != "" {
		sources = append(sources, corpus.Dir(*dir))
	}

	cfg := config.Load()
	store, err := storage.NewFileStorage(cfg.Storage.DataDir)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	eng, err := engine.NewEngine(cfg, entry, store, search.NewVectorStore(*lowercase, *normalize, entry))
	if err != nil {
		entry.Fatalf("Failed to initialize engine: %v", err)
	}
	if len(urls) > 0 {
		sources = append(sources, eng.URLSource(urls))
	}

	ctx := context.Background()
	docs, err := eng.LoadCorpus(ctx, sources...)
	if err != nil {
		entry.Fatalf("Failed to load corpus: %v", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	report, err := eng.Vectorize(ctx, engine.VectorizeRequest{
		Corpus:      corpus.Texts(docs),
		DocumentIDs: ids,
		Lowercase:   lowercase,
		Normalize:   normalize,
		Mode:        m,
		SaveAs:      *save,
	})
	if err != nil {
		entry.Fatalf("Vectorization failed: %v", err)
	}

	printReport(os.Stdout, report, *precision)
}

func printReport(w io.Writer, r *storage.Report, precision int) {
	fmt.Fprintf(w, "features: %s\n", strings.Join(r.FeatureNames, " "))
	if r.Counts != nil {
		printMatrix(w, "counts", vectorizer.CountsDense(r.Counts), -1)
	}
	if r.TF != nil {
		printMatrix(w, "tf", vectorizer.Dense(r.TF), precision)
	}
	if r.IDF != nil {
		printMatrix(w, "idf", vectorizer.Dense([][]float64{r.IDF}), precision)
	}
	if r.TFIDF != nil {
		printMatrix(w, "tfidf", vectorizer.Dense(r.TFIDF), precision)
	}
}

// printMatrix writes m under label. A negative precision prints integers.
func printMatrix(w io.Writer, label string, m *mat.Dense, precision int) {
	fmt.Fprintf(w, "%s:\n", label)
	if m == nil {
		fmt.Fprintln(w, "  []")
		return
	}
	f := mat.Formatted(m, mat.Prefix("  "), mat.Squeeze())
	if precision < 0 {
		fmt.Fprintf(w, "  %v\n", f)
		return
	}
	fmt.Fprintf(w, "  %.*f\n", precision, f)
}
