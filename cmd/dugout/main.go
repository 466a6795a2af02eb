package main

import (
	"log"
	"log/slog"

	"github.com/dugoutapp/dugout/internal/blobstore/local"
	"github.com/dugoutapp/dugout/internal/catalog"
	"github.com/dugoutapp/dugout/internal/config"
	"github.com/dugoutapp/dugout/internal/db"
	"github.com/dugoutapp/dugout/internal/logging"
	"github.com/dugoutapp/dugout/internal/service"
	"github.com/dugoutapp/dugout/internal/store"
	"github.com/dugoutapp/dugout/internal/vision"
	claudevision "github.com/dugoutapp/dugout/internal/vision/claude"
	ollamavision "github.com/dugoutapp/dugout/internal/vision/ollama"
	"github.com/dugoutapp/dugout/internal/web"
	"github.com/dugoutapp/dugout/internal/web/templates"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		return
	}

	blobs, err := local.NewLocalBlobStore(cfg.BlobPath, cfg.BlobBaseURL)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		return
	}

	analyzer := newVisionAnalyzer(cfg, logger)

	itemService := service.NewItemService(store.NewItemStore(database), blobs, cat, analyzer, logger)
	server := web.NewServer(itemService, templates.FS, blobs, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newVisionAnalyzer picks the suggestion backend. Returning nil disables the
// feature; the UI hides the suggest button.
func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.Analyzer {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("photo suggestions disabled")
		return nil
	}
}
