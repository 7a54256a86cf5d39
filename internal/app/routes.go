package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/modules/auth/auth"
	"github.com/ecosphere/core/internal/modules/auth/user"
	"github.com/ecosphere/core/internal/modules/content/blog"
	"github.com/ecosphere/core/internal/modules/content/news"
	"github.com/ecosphere/core/internal/modules/donation"
	"github.com/ecosphere/core/internal/modules/footprint"
	"github.com/ecosphere/core/internal/modules/gateway/gateway"
	"github.com/ecosphere/core/internal/modules/gateway/webhook"
	init_ "github.com/ecosphere/core/internal/modules/init"
	"github.com/ecosphere/core/internal/modules/processing/assistant"
	"github.com/ecosphere/core/internal/modules/processing/waste"
	"github.com/ecosphere/core/internal/modules/storage/backup"
	filestore "github.com/ecosphere/core/internal/modules/storage/file"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	"github.com/ecosphere/core/internal/modules/system/core/health"
	"github.com/ecosphere/core/internal/modules/system/core/option"
	"github.com/ecosphere/core/internal/pkg/bark"
	pkgredis "github.com/ecosphere/core/internal/pkg/redis"
	"github.com/ecosphere/core/internal/pkg/response"
	"github.com/ecosphere/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)
	moderatorMW := middleware.Moderator(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "ecosphere-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/ecosphere/core",
		"issues":   "https://github.com/ecosphere/core/issues",
	}

	apiPrefix := "/api/v2"

	// Shared services
	cfgSvc := appconfigs.NewService(db)
	storeSvc := filestore.NewService(cfgSvc)
	taskSvc := taskqueue.NewService(rc)
	webhookSvc := webhook.NewService(db)
	a.hub.SetWebhooks(webhookSvc)
	aggregator := news.NewAggregator(cfgSvc, rc, a.logger)

	// Bark push service for rate-limit alerts.
	barkSvc := bark.New(func() (key, serverURL, siteTitle string) {
		cfg, err := cfgSvc.Get()
		if err != nil {
			return "", "", ""
		}
		return cfg.BarkOptions.Key, cfg.BarkOptions.ServerURL, cfg.Site.Title
	})

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw(), barkSvc))
	r.Use(middleware.Idempotence(rc.Raw()))

	// WebSocket gateway lives at the root, outside the cached API group.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	// Versioned API
	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:                    15 * time.Second,
		EnableCDNHeader:        true,
		EnableForceCacheHeader: false,
		Disable:                a.cfg.IsDev(),
		SkipPaths:              httpCacheSkipPaths(apiPrefix),
	}))

	// Infrastructure
	health.RegisterRoutes(api, db, a.sched, cfgSvc, moderatorMW)

	// Init (setup wizard)
	init_.NewHandler(db, cfgSvc).RegisterRoutes(api)

	// App info endpoints
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(a.cfgStartTime()).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	cleanCache := func(c *gin.Context) {
		cfgSvc.Invalidate()
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), rc.Raw())
		if err != nil {
			response.InternalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
	}
	api.GET("/clean_cache", moderatorMW, cleanCache)
	api.GET("/clean_redis", moderatorMW, func(c *gin.Context) {
		rc.Raw().FlushDB(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Config
	appconfigs.NewHandler(cfgSvc).RegisterRoutes(api, moderatorMW)

	// Auth & User
	auth.NewHandler(auth.NewService(db), cfgSvc).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)

	// Carbon footprint estimator
	footprint.NewHandler(footprint.NewService(db)).RegisterRoutes(api, authMW)

	// Community news reports (submission, moderation, external feed)
	newsHandler := news.NewHandler(news.NewService(db), cfgSvc, storeSvc, aggregator, a.hub)
	newsHandler.SetWebhooks(webhookSvc)
	newsHandler.RegisterRoutes(api, authMW, moderatorMW)

	// Blog posts and likes
	blogHandler := blog.NewHandler(blog.NewService(db), a.hub)
	blogHandler.SetWebhooks(webhookSvc)
	blogHandler.RegisterRoutes(api, authMW, middleware.OptionalAuth(db))

	// Waste image classification
	wasteHandler := waste.NewHandler(waste.NewService(db), waste.NewClassifier(cfgSvc, a.logger), storeSvc, a.logger)
	wasteHandler.SetTasks(taskSvc)
	wasteHandler.RegisterRoutes(api, authMW)

	// AI assistant chat
	assistant.NewHandler(assistant.NewService(db, cfgSvc, a.logger)).RegisterRoutes(api, authMW)

	// Donations
	donationHandler := donation.NewHandler(donation.NewService(db, cfgSvc, a.logger), cfgSvc, a.logger)
	donationHandler.SetWebhooks(webhookSvc)
	donationHandler.RegisterRoutes(api, authMW)

	// Object storage
	filestore.NewHandler(storeSvc).RegisterRoutes(api, authMW, moderatorMW)

	// Backups
	backup.NewHandler(db, cfgSvc, rc, storeSvc, backup.WithLogger(a.logger)).RegisterRoutes(api, moderatorMW)

	// Webhooks (admin)
	webhook.NewHandler(webhookSvc).RegisterRoutes(api, moderatorMW)

	// Options (raw key-value store, admin)
	option.NewHandler(db).RegisterRoutes(api, moderatorMW)
}

func httpCacheSkipPaths(apiPrefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(apiPrefix), "/")
	if p == "" {
		p = "/api/v2"
	}
	return []string{
		p + "/uptime",
		p + "/clean_cache",
		p + "/clean_redis",
		p + "/auth/*",
		p + "/user",
		p + "/user/*",
		p + "/footprint/*",
		p + "/waste/*",
		p + "/assistant/*",
		p + "/donations/*",
		p + "/backups",
		p + "/backups/*",
		p + "/gateway/online",
	}
}
