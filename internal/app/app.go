package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/gradlink/server/cmd/server/docs" // swagger docs
	"github.com/gradlink/server/internal/module/activity"
	"github.com/gradlink/server/internal/module/credential"
	"github.com/gradlink/server/internal/module/provision"
	"github.com/gradlink/server/internal/module/pullrequest"
	sharedcache "github.com/gradlink/server/internal/shared/cache"
	"github.com/gradlink/server/internal/shared/config"
	"github.com/gradlink/server/internal/shared/database"
	"github.com/gradlink/server/internal/shared/identity"
	"github.com/gradlink/server/internal/shared/logger"
	"github.com/gradlink/server/internal/shared/metrics"
	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/store"
	"github.com/gradlink/server/internal/shared/vcs"
)

// App wires configuration, storage, platform clients and the HTTP surface
// together.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	gateway store.Gateway
	clients vcs.Factory

	credentialStore   *credential.Store
	credentialHandler *credential.Handler
	provisionHandler  *provision.Handler
	pullHandler       *pullrequest.Handler
	activityHandler   *activity.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Modules log through zap; the HTTP middleware uses the slog wrapper.
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("gradlink"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	gateway, err := store.NewGormGateway(db)
	if err != nil {
		return nil, fmt.Errorf("init document gateway: %w", err)
	}
	app.gateway = gateway

	// Redis is optional: without it the credential cache degrades to an
	// in-process map.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, using in-memory credential cache", logger.Err(err))
		} else {
			app.redis = redisClient
		}
	}

	app.clients = vcs.NewGitHubFactory(&cfg.VCS, app.metrics, zapLog)

	app.initModules()
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules builds the four service modules and their handlers.
func (a *App) initModules() {
	var credCache credential.Cache
	if a.redis != nil {
		credCache = credential.NewRedisCache(a.redis, a.config.VCS.CredentialCacheTTL, a.metrics)
	} else {
		credCache = credential.NewMemoryCache()
	}
	a.credentialStore = credential.NewStore(a.gateway, credCache)

	oauthProvider := credential.NewOAuthProvider(&a.config.VCS)
	credentialService := credential.NewService(oauthProvider, a.clients, a.credentialStore, a.zapLogger)
	a.credentialHandler = credential.NewHandler(credentialService)

	connections := provision.NewConnectionRepository(a.gateway)
	provisionService := provision.NewService(a.gateway, connections, a.credentialStore, a.clients, a.zapLogger)
	a.provisionHandler = provision.NewHandler(provisionService)

	pullService := pullrequest.NewService(a.gateway, a.credentialStore, a.clients, a.zapLogger)
	a.pullHandler = pullrequest.NewHandler(pullService)

	activityService := activity.NewService(a.credentialStore, a.clients, a.config.VCS.FallbackToken, a.config.VCS.ActivityWindowDays, a.zapLogger)
	a.activityHandler = activity.NewHandler(activityService)
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers module routes. Every integration route requires a
// verified identity token.
func (a *App) registerRoutes() {
	verifier := identity.NewJWTVerifier(&a.config.Auth)

	v1 := a.router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(verifier))

	a.credentialHandler.RegisterRoutes(v1)
	a.provisionHandler.RegisterRoutes(v1)
	a.pullHandler.RegisterRoutes(v1)
	a.activityHandler.RegisterRoutes(v1)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}
