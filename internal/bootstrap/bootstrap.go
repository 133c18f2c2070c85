package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	appAuth "github.com/notatki/notehub/internal/app/auth"
	appControllers "github.com/notatki/notehub/internal/app/controllers"
	appMigrations "github.com/notatki/notehub/internal/app/migrations"
	appRepos "github.com/notatki/notehub/internal/app/repositories"
	appRoutes "github.com/notatki/notehub/internal/app/routes"
	appServices "github.com/notatki/notehub/internal/app/services"
	"github.com/notatki/notehub/internal/config"
	"github.com/notatki/notehub/internal/db"
	appMiddleware "github.com/notatki/notehub/internal/middleware"
	pkgAuth "github.com/notatki/notehub/internal/pkg/auth"
	"github.com/notatki/notehub/internal/pkg/catalog"
	"github.com/notatki/notehub/internal/pkg/filestorage"
	"github.com/notatki/notehub/internal/pkg/helpers"
	"github.com/notatki/notehub/internal/pkg/logger"
	"github.com/notatki/notehub/internal/pkg/metrics"
	"github.com/notatki/notehub/internal/pkg/websocket"
	"github.com/notatki/notehub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService      appServices.AuthService
	UserService      appServices.UserService
	NoteService      appServices.NoteService
	RatingService    appServices.RatingService
	SubjectService   appServices.DirectoryService
	ProfessorService appServices.DirectoryService
	Controllers      appRoutes.Controllers
	AuthMiddleware   *appMiddleware.AuthMiddleware
	AuthLimiter      *appMiddleware.IPRateLimiter
	Repos            *appRepos.Repositories
	JWTService       *pkgAuth.JWTService
	AuthzService     *appAuth.AuthorizationService
	Storage          filestorage.ObjectStorage
	LocalStorage     *filestorage.LocalStorage // nil unless the local driver is selected
	CatalogCache     *appServices.CatalogCache
	Metrics          *metrics.Metrics
	Hub              *websocket.Hub
	RealtimeHandler  *websocket.Handler
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:    logLevel,
		Pretty:   prettyLog,
		FilePath: cfg.Logging.File,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if _, err := RunMigrations(ctx, cfg, database.Pool, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// RunMigrations applies every pending migration from the configured directory.
func RunMigrations(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	lgr.Info().Str("path", cfg.Database.MigrationsPath).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(pool, lgr).MigrateFromDirectory(ctx, cfg.Database.MigrationsPath)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	return applied, nil
}

// NewObjectStorage builds the storage driver selected in the configuration.
// The LocalStorage return is non-nil only for the local driver, whose files the router serves itself.
func NewObjectStorage(ctx context.Context, cfg *config.Config) (filestorage.ObjectStorage, *filestorage.LocalStorage, error) {
	buckets := []string{cfg.Storage.NotesBucket, cfg.Storage.AvatarsBucket}

	if strings.EqualFold(cfg.Storage.Driver, config.StorageDriverMinio) {
		storage, err := filestorage.NewMinioStorage(ctx, filestorage.MinioConfig{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Region:          cfg.Storage.Region,
			UseSSL:          cfg.Storage.UseSSL,
			PublicURL:       cfg.PublicStorageURL(),
		}, buckets...)
		if err != nil {
			return nil, nil, err
		}
		return storage, nil, nil
	}

	storage, err := filestorage.NewLocalStorage(cfg.Storage.Path, cfg.PublicStorageURL(), buckets...)
	if err != nil {
		return nil, nil, err
	}
	return storage, storage, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.Storage, deps.LocalStorage, err = NewObjectStorage(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Metrics, err = metrics.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	lang, err := language.Parse(cfg.Catalog.Language)
	if err != nil {
		lgr.Warn().Err(err).Str("language", cfg.Catalog.Language).Msg("Unknown catalog language, using default")
		lang = catalog.DefaultLanguage
	}

	deps.Hub = websocket.NewHub(lgr.With().Str("component", "realtime").Logger())
	deps.RealtimeHandler = websocket.NewHandler(deps.Hub, lgr)
	deps.CatalogCache = appServices.NewCatalogCache(helpers.ParseDuration(cfg.Catalog.CacheTTL, time.Minute))
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.NoteRepository)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, lgr)
	deps.UserService = appServices.NewUserService(
		deps.Repos.UserRepository,
		deps.Storage,
		cfg.Storage.AvatarsBucket,
		deps.CatalogCache,
		lgr,
	)
	deps.NoteService = appServices.NewNoteService(
		appServices.NoteRepositories{
			Notes:      deps.Repos.NoteRepository,
			Ratings:    deps.Repos.RatingRepository,
			Subjects:   deps.Repos.SubjectRepository,
			Professors: deps.Repos.ProfessorRepository,
			Downloads:  deps.Repos.DownloadRepository,
		},
		deps.Storage,
		cfg.Storage.NotesBucket,
		deps.AuthzService,
		deps.CatalogCache,
		lang,
		deps.Hub,
		deps.Metrics,
		lgr,
	)
	deps.RatingService = appServices.NewRatingService(
		deps.Repos.RatingRepository,
		deps.Repos.NoteRepository,
		deps.CatalogCache,
		deps.Hub,
		deps.Metrics,
		lgr,
	)
	deps.SubjectService = appServices.NewDirectoryService(deps.Repos.SubjectRepository, lgr)
	deps.ProfessorService = appServices.NewDirectoryService(deps.Repos.ProfessorRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.AuthLimiter = appMiddleware.NewIPRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		User:       appControllers.NewUserController(deps.UserService),
		Note:       appControllers.NewNoteController(deps.NoteService, lgr),
		Rating:     appControllers.NewRatingController(deps.RatingService),
		Subjects:   appControllers.NewDirectoryController(deps.SubjectService),
		Professors: appControllers.NewDirectoryController(deps.ProfessorService),
	}

	return deps, nil
}

// SeedDefaultData fills empty subject and professor directories. Failures are logged, not fatal.
func SeedDefaultData(ctx context.Context, deps *Dependencies) {
	if err := seed.CreateDefaultData(ctx, deps.SubjectService, deps.ProfessorService, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Metrics(deps.Metrics),
	)

	if deps.LocalStorage != nil {
		router.Static("/uploads", deps.LocalStorage.BasePath())
		lgr.Info().Str("path", deps.LocalStorage.BasePath()).Msg("Static file serving configured for uploads directory")
	}

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	appRoutes.SetupRouter(router,
		deps.Controllers,
		deps.AuthMiddleware,
		deps.AuthLimiter,
		deps.RealtimeHandler,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
