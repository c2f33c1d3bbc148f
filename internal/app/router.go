package app

import (
	httpserver "github.com/yungbote/ottolearn-tutor/internal/http"
	httpH "github.com/yungbote/ottolearn-tutor/internal/http/handlers"
	httpMW "github.com/yungbote/ottolearn-tutor/internal/http/middleware"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, svc Services) httpserver.RouterConfig {
	rc := httpserver.RouterConfig{
		Log:                log,
		CORSOrigins:        cfg.CORSOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		HealthHandler:      httpH.NewHealthHandler(),
		CourseChunkHandler: httpH.NewCourseChunkHandler(log, svc.Ingest),
		AssistantHandler:   httpH.NewAssistantHandler(log, svc.Assistant),
		CatalogHandler:     httpH.NewCourseCatalogHandler(log, svc.Catalog),
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	if svc.Auth != nil {
		rc.AuthMiddleware = httpMW.NewAuthMiddleware(log, svc.Auth)
	}
	return rc
}
