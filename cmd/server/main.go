package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/textvec/internal/api"
	"github.com/knowledge-engine/textvec/internal/config"
	"github.com/knowledge-engine/textvec/internal/corpus"
	"github.com/knowledge-engine/textvec/internal/engine"
	"github.com/knowledge-engine/textvec/internal/search"
	"github.com/knowledge-engine/textvec/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	seedDir := flag.String("seed", "", "directory of .txt/.html documents to index at startup")
	flag.Parse()

	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "textvec-api")

	// 1. Config
	cfg := config.Load()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			entry.Fatalf("Failed to load config: %v", err)
		}
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	entry.Info("Starting text vectorizer API service")

	// 2. Storage
	store, err := storage.NewFileStorage(cfg.Storage.DataDir)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// 3. Search Index (Memory)
	vectorStore := search.NewVectorStore(cfg.Vectorizer.Lowercase, cfg.Vectorizer.Normalize, entry)

	// 4. Engine
	eng, err := engine.NewEngine(cfg, entry, store, vectorStore)
	if err != nil {
		entry.Fatalf("Failed to initialize engine: %v", err)
	}

	if *seedDir != "" {
		seedIndex(eng, *seedDir, entry)
	}

	// 5. API Server
	server := api.NewServer(eng, entry)
	if err := server.Start(cfg.Server.Addr); err != nil {
		entry.Fatal(err)
	}
}

func seedIndex(eng *engine.Engine, dir string, log *logrus.Entry) {
	if _, err := os.Stat(dir); err != nil {
		log.WithError(err).Warn("Seed directory unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := eng.Index(ctx, corpus.Dir(dir))
	if err != nil {
		log.WithError(err).Warn("Failed to seed search index")
		return
	}
	log.Infof("Pre-loaded %d documents into search index", count)
}
