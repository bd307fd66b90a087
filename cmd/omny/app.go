package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/coach"
	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/internal/embedding"
	"github.com/hyperjump/omny/internal/extract"
	"github.com/hyperjump/omny/internal/indexer"
	"github.com/hyperjump/omny/internal/keyword"
	"github.com/hyperjump/omny/internal/llm"
	"github.com/hyperjump/omny/internal/render"
	"github.com/hyperjump/omny/internal/retrieval"
	"github.com/hyperjump/omny/internal/server"
	"github.com/hyperjump/omny/internal/storage"
	"github.com/hyperjump/omny/internal/store"
	"github.com/hyperjump/omny/internal/vector"
	"github.com/hyperjump/omny/pkg/utils"
)

const defaultConfigPath = "config.yaml"

// loadConfig loads config from path. When the default config.yaml does not
// exist, built-in defaults relative to the working directory are used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		cfg, err := config.Default(cwd)
		if err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// knowledgeBase holds the opened knowledge components.
type knowledgeBase struct {
	storage  *storage.SQLiteStorage
	embedder embedding.Embedder
	vectors  *vector.MemoryIndex
	keywords *keyword.BleveIndex
	indexer  *indexer.Indexer
	searcher *retrieval.IndexSearcher
	paths    []string
}

func openKnowledge(cfg *config.Config, client *llm.Client, logger *zap.Logger) (*knowledgeBase, error) {
	kcfg := cfg.Knowledge
	embedder, err := embedding.New(cfg.Embedding, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	kb := &knowledgeBase{
		embedder: embedder,
		paths:    []string{kcfg.DatabasePath, kcfg.VectorIndexPath, kcfg.KeywordIndexPath},
	}
	if kb.storage, err = storage.NewSQLiteStorage(kcfg.DatabasePath); err != nil {
		kb.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if kb.vectors, err = vector.NewMemoryIndex(embedder.Dimensions()); err != nil {
		kb.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := kb.vectors.Load(kcfg.VectorIndexPath); err != nil {
		kb.Close()
		return nil, fmt.Errorf("failed to load vector index (run omny ingest to rebuild): %w", err)
	}
	if kb.keywords, err = keyword.NewBleveIndex(kcfg.KeywordIndexPath); err != nil {
		kb.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	kb.indexer = indexer.New(kb.storage, embedder, kb.vectors, kb.keywords, kcfg,
		extract.NewExtractor(kcfg.Extensions...), indexer.WithLogger(logger))
	kb.searcher = retrieval.NewIndexSearcher(kb.storage, embedder, kb.vectors, kb.keywords,
		retrieval.WithSearchLogger(logger))
	logger.Debug("knowledge base opened",
		zap.String("database", kcfg.DatabasePath),
		zap.Int("vectors", kb.vectors.Size()),
		zap.Int("dimensions", kb.vectors.Dimensions()))
	return kb, nil
}

// Close releases every opened component.
func (kb *knowledgeBase) Close() {
	if kb.storage != nil {
		_ = kb.storage.Close()
	}
	if kb.embedder != nil {
		_ = kb.embedder.Close()
	}
	if kb.vectors != nil {
		_ = kb.vectors.Close()
	}
	if kb.keywords != nil {
		_ = kb.keywords.Close()
	}
}

func (kb *knowledgeBase) serverKnowledge() *server.Knowledge {
	return &server.Knowledge{
		Storage:  kb.storage,
		Vectors:  kb.vectors,
		Searcher: kb.searcher,
		Paths:    kb.paths,
	}
}

// app is the wired application.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *llm.Client
	kb     *knowledgeBase
	coach  *coach.Service
}

// newApp wires the coach service. When withKnowledge is set the knowledge base
// is opened; failure to open it is logged and general answers use the
// fallback context.
func newApp(cfg *config.Config, logger *zap.Logger, withKnowledge bool) *app {
	logger = utils.OrNop(logger)
	client := llm.NewClient(llm.OptionsFromConfig(cfg.LLM),
		llm.WithLogger(logger),
		llm.WithObserver(llm.NewLogObserver(logger)),
	)
	a := &app{cfg: cfg, logger: logger, client: client}

	var gateway *retrieval.Gateway
	if withKnowledge {
		kb, err := openKnowledge(cfg, client, logger)
		if err != nil {
			logger.Warn("knowledge base unavailable, answers will use the fallback context", zap.Error(err))
		} else {
			a.kb = kb
			gateway = retrieval.NewGateway(kb.searcher, cfg.Knowledge.TopK, retrieval.WithLogger(logger))
		}
	}

	renderer := render.New(render.Options{Title: cfg.PDF.Title, LogoPath: cfg.PDF.LogoPath}, render.WithLogger(logger))
	a.coach = coach.NewService(client, gateway,
		store.NewProfileStore(cfg.Data.ProfilePath()),
		store.NewTranscriptStore(cfg.Data.ChatPath()),
		coach.Models{Chat: cfg.LLM.ChatModel, Vision: cfg.LLM.VisionModel},
		coach.WithLogger(logger),
		coach.WithRenderer(renderer),
	)
	return a
}

func (a *app) Close() {
	if a.kb != nil {
		a.kb.Close()
	}
}

func (a *app) knowledge() *server.Knowledge {
	if a.kb == nil {
		return nil
	}
	return a.kb.serverKnowledge()
}

// knowledgeDir returns dir, or the configured knowledge directory when empty.
func (a *app) knowledgeDir(dir string) string {
	if dir == "" {
		return a.cfg.Knowledge.Dir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
