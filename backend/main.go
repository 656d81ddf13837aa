package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"patas-conectadas/backend/internal/cache"
	"patas-conectadas/backend/internal/config"
	"patas-conectadas/backend/internal/database"
	"patas-conectadas/backend/internal/handlers"
	"patas-conectadas/backend/internal/logger"
	"patas-conectadas/backend/internal/middleware"
	"patas-conectadas/backend/internal/monitoring"
	"patas-conectadas/backend/internal/repositories"
	"patas-conectadas/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	gormlogger "gorm.io/gorm/logger"
)

// Application holds all application dependencies and state
type Application struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *database.DatabasePool
	Redis  *redis.Client
	Cache  *cache.MultiLevelCache
	Router *gin.Engine
	Server *http.Server

	TaskService       services.TaskService
	VolunteerService  services.VolunteerService
	PreferenceService services.PreferenceService
	AnimalService     services.AnimalService
}

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command and exit: up, down or version")
	flag.Parse()

	v := viper.New()
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.WatchLevel(v, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateCmd != "" {
		if err := runMigrateCommand(ctx, cfg, log, *migrateCmd); err != nil {
			log.Fatal("Migration command failed", zap.String("command", *migrateCmd), zap.Error(err))
		}
		return
	}

	app, err := initializeApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer app.cleanup()

	app.setupRoutes()
	if err := app.run(ctx); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*database.DatabasePool, error) {
	level := gormlogger.Warn
	if logger.Level() <= zapcore.DebugLevel {
		level = gormlogger.Info
	}
	return database.NewDatabasePool(ctx, &database.PoolConfig{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
		SlowThreshold:   cfg.Database.SlowThreshold,
	}, log)
}

func migrationConfig(cfg *config.Config) *repositories.MigrationConfig {
	mc := repositories.DefaultMigrationConfig()
	mc.DBName = cfg.Database.Name
	return mc
}

func runMigrateCommand(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd string) error {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "up":
		return repositories.RunMigrations(db.DB, migrationConfig(cfg), log)
	case "down":
		return repositories.RollbackMigration(db.DB, migrationConfig(cfg), log)
	case "version":
		version, dirty, err := repositories.GetMigrationVersion(db.DB, migrationConfig(cfg))
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}
	return fmt.Errorf("unknown migrate command %q", cmd)
}

func initializeApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Application, error) {
	app := &Application{Config: cfg, Log: log}

	log.Info("Initializing backend", zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = db
	monitoring.RegisterHealthCheck("database", db.Health)

	if cfg.Database.AutoMigrate {
		if err := repositories.RunMigrations(db.DB, migrationConfig(cfg), log); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, continuing with memory cache only",
				zap.String("addr", cfg.GetRedisAddr()), zap.Error(err))
			client.Close()
		} else {
			app.Redis = client
			monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
			log.Info("Redis connected", zap.String("addr", cfg.GetRedisAddr()))
		}
	}

	if cfg.Cache.Enabled {
		var l2 *cache.RedisCache
		if app.Redis != nil {
			l2 = cache.NewRedisCacheFromClient(app.Redis, cfg.Cache.KeyPrefix)
		}
		app.Cache = cache.NewMultiLevelCache(l2)
		log.Info("Cache initialized", zap.Bool("redis_l2", l2 != nil), zap.Duration("ttl", cfg.Cache.TTL))
	}

	volunteerRepo := repositories.NewVolunteerRepository(db.DB, log)
	animalRepo := repositories.NewAnimalRepository(db.DB)

	app.TaskService = services.NewTaskService(
		repositories.NewTaskRepository(db.DB, log),
		repositories.NewTaskStatusRepository(db.DB),
		volunteerRepo,
		animalRepo,
		log,
	)

	var volunteers services.VolunteerService = services.NewVolunteerService(volunteerRepo, log)
	if app.Cache != nil {
		volunteers = services.NewCachedVolunteerService(volunteers, app.Cache, cfg.Cache.TTL, log)
	}
	app.VolunteerService = volunteers

	app.PreferenceService = services.NewPreferenceService(repositories.NewPreferenceRepository(db.DB), volunteerRepo)
	app.AnimalService = services.NewAnimalService(animalRepo, repositories.NewAnimalStatusRepository(db.DB))

	log.Info("All services initialized")
	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(app.Log))
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog(app.Log))
	r.Use(middleware.SecureHeaders())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if origins := app.Config.CORS.AllowOrigins; len(origins) == 0 || slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())
	if app.Cache != nil {
		r.GET("/cache/stats", app.cacheStatsHandler())
	}

	api := r.Group("")
	if rl := app.Config.RateLimit; rl.Enabled {
		api.Use(middleware.RateLimiter(rate.Limit(rl.RPS), rl.Burst))
		if app.Redis != nil {
			limiter := middleware.NewDistributedRateLimiter(app.Redis, app.Log)
			api.Use(middleware.WritesOnly(limiter.CreateMiddleware("writes", &middleware.RateLimit{
				Rate:    rl.Writes,
				Window:  rl.Window,
				KeyFunc: middleware.RouteKeyFunc,
			})))
		}
	}

	handlers.NewVolunteerHandler(app.VolunteerService, app.TaskService, app.Log).Register(api)
	handlers.NewPreferenceHandler(app.PreferenceService, app.Log).Register(api)
	handlers.NewTaskHandler(app.TaskService, app.Log).Register(api)
	handlers.NewAnimalHandler(app.AnimalService, app.Log).Register(api)

	app.Router = r
}

func (app *Application) cacheStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, app.Cache.Stats())
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (app *Application) run(ctx context.Context) error {
	addr := app.Config.GetServerAddr()
	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info("Server starting", zap.String("addr", addr))
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	app.Log.Info("Server stopped gracefully")
	return nil
}

func (app *Application) cleanup() {
	// Closing the cache also closes the shared redis client.
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Log.Warn("Error closing cache", zap.Error(err))
		}
	} else if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Log.Warn("Error closing redis", zap.Error(err))
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Log.Warn("Error closing database", zap.Error(err))
		}
	}
}
