package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/middleware"
	"github.com/delegationapp/delegate/internal/service"
	"github.com/delegationapp/delegate/pkg/config"
	"github.com/delegationapp/delegate/pkg/logger"
	corsmiddleware "github.com/delegationapp/delegate/pkg/middleware/cors"
	reqidmiddleware "github.com/delegationapp/delegate/pkg/middleware/requestid"
)

// RouterDeps bundles everything the gateway routes need.
type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Session service.SessionProvider
	MyAds   *MyAdsHandler
	Drafts  *DraftHandler
	Feed    *FeedHandler
}

// NewRouter assembles the localhost gateway the UI process talks to.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group(deps.Config.APIPrefix)
	api.GET("/feed", deps.Feed.List)

	authed := api.Group("", middleware.RequireSession(deps.Session))

	myAds := authed.Group("/my-ads")
	myAds.GET("", deps.MyAds.List)
	myAds.GET("/counts", deps.MyAds.Counts)
	myAds.POST("/reload", deps.MyAds.Reload)
	myAds.GET("/toast", deps.MyAds.Toast)
	myAds.GET("/error", deps.MyAds.LastError)
	myAds.DELETE("/error", deps.MyAds.ClearError)
	myAds.POST("/export", deps.MyAds.Export)
	myAds.POST("/:id/archive", deps.MyAds.Archive)
	myAds.DELETE("/:id", deps.MyAds.Delete)

	drafts := authed.Group("/drafts")
	drafts.POST("", deps.Drafts.Create)
	drafts.GET("", deps.Drafts.List)
	drafts.GET("/:id", deps.Drafts.Get)
	drafts.POST("/:id/fields", deps.Drafts.SetField)
	drafts.POST("/:id/validate", deps.Drafts.ValidateStep)
	drafts.POST("/:id/attachments", deps.Drafts.Attach)
	drafts.POST("/:id/submit", deps.Drafts.Submit)
	drafts.DELETE("/:id", deps.Drafts.Delete)

	return r
}
