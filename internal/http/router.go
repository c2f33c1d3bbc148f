package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/ottolearn-tutor/internal/http/handlers"
	httpMW "github.com/yungbote/ottolearn-tutor/internal/http/middleware"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	CourseChunkHandler *httpH.CourseChunkHandler
	CatalogHandler     *httpH.CourseCatalogHandler
	AssistantHandler   *httpH.AssistantHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		protected.Use(httpMW.RequestTimeout(cfg.RequestTimeout))

		// Course chunks (ingestion)
		if cfg.CourseChunkHandler != nil {
			protected.PUT("/courses/:courseId/chunks", cfg.CourseChunkHandler.ReplaceChunks)
		}

		if cfg.CatalogHandler != nil {
			protected.GET("/courses/:courseId/chunks", cfg.CatalogHandler.ListChunks)
			protected.GET("/courses/:courseId/stats", cfg.CatalogHandler.Stats)
		}

		// Course assistant
		if cfg.AssistantHandler != nil {
			protected.POST("/courses/:courseId/assistant/ask", cfg.AssistantHandler.Ask)
		}
	}

	return r
}
