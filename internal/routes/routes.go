package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/sampah-api/internal/handlers"
	"github.com/Brownie44l1/sampah-api/internal/logger"
)

type Options struct {
	CORSOrigins []string
	// ModelServeDir is exposed under /models/ so the classifier can load by URL.
	ModelServeDir string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// SetupRoutes registers the API, optional model file serving and middleware.
func SetupRoutes(h *handlers.Handler, log *logger.Logger, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic while serving %s: %v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{Error: handlers.GenericError})
	}))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)

	api := r.Group("/api")
	{
		api.POST("/classify", h.Classify)
	}
	r.POST("/classify", h.Classify)

	if opts.ModelServeDir != "" {
		r.Static("/models", opts.ModelServeDir)
	}

	return r
}
