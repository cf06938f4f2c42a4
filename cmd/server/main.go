package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Laksh-devta/shl-recommender-go/internal/adapters/catalog"
	"github.com/Laksh-devta/shl-recommender-go/internal/adapters/embedding"
	"github.com/Laksh-devta/shl-recommender-go/internal/adapters/vectordb"
	"github.com/Laksh-devta/shl-recommender-go/internal/config"
	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
	"github.com/Laksh-devta/shl-recommender-go/internal/domain/ports"
	"github.com/Laksh-devta/shl-recommender-go/internal/domain/usecases"
	httpserver "github.com/Laksh-devta/shl-recommender-go/internal/infrastructure/http"
	"github.com/Laksh-devta/shl-recommender-go/internal/logging"
)

func main() {
	syncFlag := flag.Bool("sync", false, "Embed the catalog and upsert it into the vector index before serving")
	syncOnlyFlag := flag.Bool("sync-only", false, "Sync the catalog into the index and exit (don't start the server)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("loading configuration")
	}
	logging.Init(cfg.Logging)

	store, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("loading catalog")
	}
	logging.Info().Int("products", store.Len()).Str("path", cfg.Catalog.Path).Msg("catalog loaded")

	embedder := embedding.NewGoogleAdapter(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.APIKey,
		cfg.Embedding.Timeout,
	)

	index, err := buildIndex(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("creating vector index backend")
	}

	desc := entities.IndexDescriptor{
		Name:      cfg.Index.Name,
		Dimension: cfg.Index.Dimension,
		Metric:    cfg.Index.Metric,
		Cloud:     cfg.Index.Cloud,
		Region:    cfg.Index.Region,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := index.EnsureIndex(ctx, desc); err != nil {
		logging.Fatal().Err(err).Str("index", desc.Name).Msg("bootstrapping vector index")
	}
	logging.Info().Str("index", desc.Name).Msg("vector index ready")

	// The in-memory backend starts empty on every boot, so it always syncs.
	if *syncFlag || *syncOnlyFlag || cfg.Recommend.SyncOnStartup || cfg.Index.Backend == "memory" {
		sync := usecases.NewCatalogSync(embedder, index, store, cfg.Recommend.SyncBatchSize)
		n, err := sync.Sync(ctx)
		if err != nil {
			logging.Fatal().Err(err).Msg("syncing catalog into index")
		}
		logging.Info().Int("products", n).Msg("catalog synced into index")
	}
	if *syncOnlyFlag {
		return
	}

	recommender := usecases.NewRecommender(
		embedder,
		index,
		store,
		cfg.Recommend.Threshold,
		cfg.Recommend.TopK,
	)

	srv := httpserver.NewServer(recommender, cfg.Server.Addr(), cfg.Server.Timeout)
	if err := srv.Start(ctx); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
	logging.Info().Msg("shutdown complete")
}

func buildIndex(cfg *config.Config) (ports.VectorIndex, error) {
	switch cfg.Index.Backend {
	case "sqlite":
		return vectordb.NewSQLiteIndex(cfg.Index.DataPath)
	case "memory":
		return vectordb.NewMemoryIndex(), nil
	default:
		return vectordb.NewPineconeIndex(vectordb.PineconeConfig{
			APIKey:          cfg.Index.APIKey,
			ControlURL:      cfg.Index.ControlURL,
			PollInterval:    cfg.Index.PollInterval,
			MaxPollAttempts: cfg.Index.MaxPollAttempts,
			Timeout:         cfg.Index.Timeout,
		}), nil
	}
}
