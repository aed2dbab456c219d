package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/config"
	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/database"
	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	blobinfra "github.com/imai1205/zumen-connect-backend/internal/infrastructure/blob"
	cacheinfra "github.com/imai1205/zumen-connect-backend/internal/infrastructure/cache"
	genaiinfra "github.com/imai1205/zumen-connect-backend/internal/infrastructure/genai"
	ocrinfra "github.com/imai1205/zumen-connect-backend/internal/infrastructure/ocr"
	sqliterepo "github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/uow"
	"github.com/imai1205/zumen-connect-backend/internal/infrastructure/raster"
	vectorinfra "github.com/imai1205/zumen-connect-backend/internal/infrastructure/vector"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
	"github.com/imai1205/zumen-connect-backend/internal/server"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/extraction"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/pipeline"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/worker"
)

// embeddingDimensions matches the existing Pinecone index.
const embeddingDimensions = 1536

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewJobRepository,
			fx.As(new(ports.JobRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewDrawingRepository,
			fx.As(new(ports.DrawingRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewFileRepository,
			fx.As(new(ports.FileRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewTokenRepository,
			fx.As(new(ports.TokenRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			raster.NewFitzRasterizer,
			fx.As(new(ports.Rasterizer)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideBlobStore),
	fx.Provide(provideOCREngine),
	fx.Provide(provideGenAI),
	fx.Provide(provideVectorIndex),
	fx.Provide(extraction.NewService),
	fx.Provide(func(s *extraction.Service) pipeline.FieldExtractor { return s }),
	fx.Provide(pipeline.NewService),
	fx.Provide(provideWorker),
	fx.Provide(server.New),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideBlobStore(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.BlobStore, error) {
	switch cfg.Blob.Driver {
	case "gcs":
		store, err := blobinfra.NewGCSStore(ctx, cfg.Blob)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error { return store.Close() },
		})
		return store, nil
	case "fs", "":
		return blobinfra.NewFSStore(cfg.Blob.Root)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}

func provideOCREngine(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.OCREngine, error) {
	switch cfg.OCR.Engine {
	case "vision", "":
		var opts []option.ClientOption
		if cfg.Blob.Credentials != "" {
			opt, err := blobinfra.CredentialOption(cfg.Blob.Credentials)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		}
		engine, err := ocrinfra.NewVisionEngine(ctx, opts...)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error { return engine.Close() },
		})
		return engine, nil
	case "tesseract":
		return ocrinfra.NewTesseractEngine(), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCR.Engine)
	}
}

type genaiResult struct {
	fx.Out

	Model    ports.FieldModel
	Embedder ports.Embedder
}

// provideGenAI builds the generative provider. Without an API key both
// outputs are nil: the cascade then stops after rules and vectorize skips.
// The embedder is always Gemini regardless of the extraction provider.
func provideGenAI(ctx context.Context, cfg config.Config) (genaiResult, error) {
	var out genaiResult

	if cfg.GenAI.GeminiAPIKey != "" {
		gemini, err := genaiinfra.NewGeminiModel(
			ctx,
			cfg.GenAI.GeminiAPIKey,
			cfg.GenAI.GeminiModel,
			cfg.GenAI.EmbeddingModel,
			embeddingDimensions,
		)
		if err != nil {
			return out, err
		}
		out.Model = gemini
		out.Embedder = gemini
	}

	switch cfg.GenAI.Provider {
	case "gemini", "":
		// Model already set above when the key is present.
	case "openai":
		if cfg.GenAI.OpenAIAPIKey != "" {
			out.Model = genaiinfra.NewOpenAIModel(cfg.GenAI.OpenAIAPIKey, cfg.GenAI.OpenAIModel)
		}
	default:
		return out, fmt.Errorf("unknown genai provider %q", cfg.GenAI.Provider)
	}

	if out.Model == nil {
		logging.Warn(ctx, "no generative provider configured, extraction relies on rules only")
	}
	return out, nil
}

func provideVectorIndex(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.VectorIndex, error) {
	if !cfg.PineconeConfigured() {
		logging.Info(ctx, "pinecone not configured, vectorize stage disabled")
		return nil, nil
	}

	index, err := vectorinfra.NewPineconeIndex(ctx, cfg.Pinecone.APIKey, cfg.Pinecone.Index)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return index.Close() },
	})
	return index, nil
}

func provideWorker(cfg config.Config, jobs ports.JobRepository, pipelineSvc *pipeline.Service) *worker.Service {
	return worker.NewService(jobs, pipelineSvc, time.Duration(cfg.Worker.PollIntervalSec)*time.Second)
}
