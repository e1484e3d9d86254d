package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/handler"
	"github.com/noah-isme/ward-mar-api/internal/middleware"
	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/internal/service"
	"github.com/noah-isme/ward-mar-api/pkg/config"
	"github.com/noah-isme/ward-mar-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ward-mar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ward-mar-api/pkg/middleware/requestid"
)

// Services builds the MAR and export services over the configured source.
func Services(cfg *config.Config, source *Source, metrics *service.MetricsService, logger *zap.Logger) (*service.MarService, *service.ExportService) {
	marSvc := service.NewMarService(service.MarServiceParams{
		Source:     source.Reader,
		SourceName: source.Name,
		Location:   cfg.Mar.Location,
		Metrics:    metrics,
		Logger:     logger,
	})
	if !cfg.Mar.ExportEnabled {
		return marSvc, nil
	}
	return marSvc, service.NewExportService(service.ExportServiceParams{
		Reports: marSvc,
		Metrics: metrics,
		Logger:  logger,
	})
}

// NewRouter assembles the gin engine with the MAR routes mounted under the API prefix.
func NewRouter(cfg *config.Config, logr *zap.Logger, source *Source, metrics *service.MetricsService) *gin.Engine {
	marSvc, exportSvc := Services(cfg, source, metrics, logr)
	marHandler := newMarHandler(marSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, source.Ready)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/" + strings.Trim(cfg.APIPrefix, "/"))
	api.Use(middleware.WithResponseMeta())
	mar := api.Group("/mar")
	if cfg.JWT.Enabled {
		mar.Use(middleware.JWT(service.NewTokenService(service.TokenConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
		})))
		mar.Use(middleware.RequireRoles(models.RoleNurse, models.RolePhysician, models.RolePharmacist, models.RoleAdmin))
	}
	mar.GET("/patients", marHandler.Report)
	mar.GET("/patients/export", marHandler.Export)
	mar.GET("/details", marHandler.Detail)

	return r
}

// newMarHandler avoids handing the handler a typed-nil exporter.
func newMarHandler(marSvc *service.MarService, exporter *service.ExportService) *handler.MarHandler {
	if exporter == nil {
		return handler.NewMarHandler(marSvc, nil)
	}
	return handler.NewMarHandler(marSvc, exporter)
}
