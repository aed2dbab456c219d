package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Blob     BlobConfig     `mapstructure:"blob"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Pinecone PineconeConfig `mapstructure:"pinecone"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	WorkerAPIKey   string   `mapstructure:"worker_api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BlobConfig selects the artifact store. Driver "gcs" needs project, bucket
// and credentials; driver "fs" stores objects under Root.
type BlobConfig struct {
	Driver      string `mapstructure:"driver"`
	ProjectID   string `mapstructure:"project_id"`
	Bucket      string `mapstructure:"bucket"`
	Credentials string `mapstructure:"credentials"` // JSON string or file path
	Root        string `mapstructure:"root"`
}

// OCRConfig selects the OCR engine: "vision" (Google Cloud Vision) or
// "tesseract" (local, offline).
type OCRConfig struct {
	Engine   string `mapstructure:"engine"`
	Language string `mapstructure:"language"`
}

// GenAIConfig selects the generative extraction provider: "gemini" or
// "openai". The embedding model is always Gemini.
type GenAIConfig struct {
	Provider       string `mapstructure:"provider"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type PineconeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Index  string `mapstructure:"index"`
}

type WorkerConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ZC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Worker.PollIntervalSec < 1 {
		cfg.Worker.PollIntervalSec = 1
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("blob_driver", cfg.Blob.Driver),
		slog.String("ocr_engine", cfg.OCR.Engine),
		slog.String("genai_provider", cfg.GenAI.Provider),
	)

	return cfg, nil
}

// PineconeConfigured reports whether vectorization can run at all. Missing
// Pinecone settings skip the vectorize stage rather than failing jobs.
func (c Config) PineconeConfigured() bool {
	return c.Pinecone.APIKey != "" && c.Pinecone.Index != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "zumen-connect-worker")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/worker.sqlite")
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.root", "data/blobs")
	v.SetDefault("ocr.engine", "vision")
	v.SetDefault("ocr.language", "ja")
	v.SetDefault("genai.provider", "gemini")
	v.SetDefault("genai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("genai.openai_model", "gpt-4o-mini")
	v.SetDefault("genai.embedding_model", "gemini-embedding-001")
	v.SetDefault("worker.poll_interval_sec", 5)
}
