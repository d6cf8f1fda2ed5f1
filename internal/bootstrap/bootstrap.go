package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duomind/duomind/internal/config"
	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
	"github.com/duomind/duomind/internal/core/retrieval"
	"github.com/duomind/duomind/internal/core/usecase"
	"github.com/duomind/duomind/internal/infrastructure/chunking"
	"github.com/duomind/duomind/internal/infrastructure/extractor"
	"github.com/duomind/duomind/internal/infrastructure/extractor/markdown"
	"github.com/duomind/duomind/internal/infrastructure/extractor/pdfdoc"
	"github.com/duomind/duomind/internal/infrastructure/extractor/plaintext"
	"github.com/duomind/duomind/internal/infrastructure/extractor/spreadsheet"
	"github.com/duomind/duomind/internal/infrastructure/extractor/wordml"
	"github.com/duomind/duomind/internal/infrastructure/llm/ollama"
	"github.com/duomind/duomind/internal/infrastructure/queue/nats"
	"github.com/duomind/duomind/internal/infrastructure/repository/postgres"
	"github.com/duomind/duomind/internal/infrastructure/resilience"
	"github.com/duomind/duomind/internal/infrastructure/storage/localfs"
	"github.com/duomind/duomind/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Retriever ports.PassageRetriever

	Ingest  ports.DocumentIngestor
	Process ports.DocumentProcessor
	Remove  ports.DocumentRemover
	Reader  ports.DocumentReader
	QA      ports.AnswerService
	Sync    *usecase.SyncService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		UpdatedSubject: cfg.NATSUpdatedSubject,
		Executor:       executor,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	extractors := extractor.NewRegistry()
	extractors.Register("text", plaintext.NewExtractor(storage))
	extractors.Register("markdown", markdown.NewExtractor(storage))
	extractors.Register("pdf", pdfdoc.NewExtractor(storage, logger))
	extractors.Register("docx", wordml.NewExtractor(storage))
	extractors.Register("spreadsheet", spreadsheet.NewExtractor(storage))

	profiles, err := retrieval.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load retrieval profiles: %w", err)
	}
	engine := retrieval.NewEngine(embedder, vectorDB, retrieval.Config{
		Lexical: retrieval.LexicalParams{
			K1:    cfg.BM25K1,
			B:     cfg.BM25B,
			Delta: cfg.BM25Delta,
		},
		Profiles:     profiles,
		EmbedTimeout: time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
	}, logger)

	if err := warmLexicalIndex(ctx, engine, chunkRepo, logger); err != nil {
		return nil, fmt.Errorf("warm lexical index: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		Retriever: engine,

		Ingest:  usecase.NewIngestService(repo, storage, queue, logger),
		Process: usecase.NewProcessService(repo, chunkRepo, extractors, chunker, engine, embedder, vectorDB, queue, logger),
		Remove:  usecase.NewDeleteService(repo, chunkRepo, storage, vectorDB, engine, queue, logger),
		Reader:  usecase.NewDocumentQueryService(repo),
		QA:      usecase.NewQAService(engine, repo, generator, logger),
		Sync:    usecase.NewSyncService(chunkRepo, engine, logger),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}
	return app, nil
}

// warmLexicalIndex reloads persisted chunks so the in-memory lexical index
// survives restarts. Rows are ordered by document and ordinal, so grouping
// consecutive rows is enough to reassemble each document.
func warmLexicalIndex(ctx context.Context, engine *retrieval.Engine, chunkRepo ports.ChunkRepository, logger *slog.Logger) error {
	chunks, err := chunkRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	documents := 0
	var documentID string
	var texts []string
	flush := func() error {
		if documentID == "" {
			return nil
		}
		if _, err := engine.AddDocument(documentID, texts); err != nil && !domain.IsKind(err, domain.ErrDuplicateDocument) {
			return fmt.Errorf("register document %s: %w", documentID, err)
		}
		documents++
		return nil
	}

	for _, chunk := range chunks {
		if chunk.DocumentID != documentID {
			if err := flush(); err != nil {
				return err
			}
			documentID = chunk.DocumentID
			texts = texts[:0]
		}
		texts = append(texts, chunk.Text)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("lexical index warmed", "documents", documents, "chunks", len(chunks))
	return nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
