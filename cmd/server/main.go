package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nfnt/resize"

	"github.com/Brownie44l1/sampah-api/internal/advice"
	"github.com/Brownie44l1/sampah-api/internal/config"
	"github.com/Brownie44l1/sampah-api/internal/handlers"
	"github.com/Brownie44l1/sampah-api/internal/logger"
	"github.com/Brownie44l1/sampah-api/internal/model"
	"github.com/Brownie44l1/sampah-api/internal/pipeline"
	"github.com/Brownie44l1/sampah-api/internal/routes"
	"github.com/Brownie44l1/sampah-api/internal/storage"
	"github.com/Brownie44l1/sampah-api/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Close()

	if err := run(cfg, lg); err != nil {
		lg.Error("Server failed: %v", err)
		lg.Close()
		log.Fatal(err)
	}
}

func run(cfg *config.Config, lg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	models := model.NewONNXProvider(model.LoadOptions{
		ModelSource:       cfg.ModelSource,
		MetadataSource:    cfg.MetadataPath,
		SharedLibraryPath: cfg.ONNXLibPath,
	})
	defer models.Close()

	lg.Info("Model source: %s (metadata: %s)", cfg.ModelSource, cfg.MetadataPath)
	if cfg.ModelLazy {
		lg.Info("Model will be loaded on first request")
	} else {
		classifier, err := models.Get(ctx)
		if err != nil {
			return err
		}
		lg.Info("Classes: %v", classifier.Metadata().Classes)
	}

	var advisor advice.Advisor
	switch cfg.AdviceProvider {
	case config.ProviderGemini:
		advisor = advice.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AdviceTimeout)
	default:
		advisor = advice.NewChatClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqURL, cfg.AdviceTimeout)
	}
	for key, value := range map[string]string{"GOOGLE_API_KEY": cfg.GoogleAPIKey, "GOOGLE_CSE_ID": cfg.GoogleCSEID} {
		if config.Require(key, value) != nil {
			lg.Warning("%s is not set; video lookups will return %q", key, video.NotFound)
		}
	}
	finder := video.NewSearchClient(cfg.GoogleAPIKey, cfg.GoogleCSEID, cfg.SearchTimeout, lg)

	uploads, err := storage.NewUploads(cfg.UploadDir)
	if err != nil {
		return err
	}

	service, err := pipeline.NewService(pipeline.Deps{
		Models:        models,
		Advisor:       advisor,
		Finder:        finder,
		Logger:        lg,
		Interpolation: resize.Bilinear,
	})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	handler := handlers.NewHandler(service, models, uploads, lg)
	router := routes.SetupRoutes(handler, lg, routes.Options{
		CORSOrigins:   cfg.CORSOrigins,
		ModelServeDir: cfg.ModelServeDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lg.Info("Server starting on port %s (advice provider: %s)", cfg.Port, cfg.AdviceProvider)
	lg.Info("  GET  /health       - Health check")
	lg.Info("  POST /api/classify - Classify an uploaded image (field 'image')")
	lg.Info("  POST /predict      - Raw tensor prediction")
	if cfg.ModelServeDir != "" {
		lg.Info("  GET  /models/*     - Model files from %s", cfg.ModelServeDir)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	lg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
