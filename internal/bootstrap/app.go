package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"invoice-api/internal/invoices"
	"invoice-api/internal/parser"
	"invoice-api/internal/services/health"
	"invoice-api/internal/shared/auth"
	"invoice-api/internal/shared/config"
	"invoice-api/internal/shared/server"
	"invoice-api/internal/shared/storage/db"
	"invoice-api/internal/shared/storage/object"
	localstore "invoice-api/internal/shared/storage/object/local"
	miniostore "invoice-api/internal/shared/storage/object/minio"
	s3store "invoice-api/internal/shared/storage/object/s3"
	"invoice-api/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sqlx.DB
	Cache          *invoices.RedisCache
	Store          object.ObjectStore
	Verifier       auth.Verifier
	Parser         *parser.Client
	InvoicesRepo   invoices.Repo
	InvoiceService *invoices.Service
	InvoiceHandler *invoices.Handler
	HealthHandler  *health.Handler
}

// Overrides lets tests swap collaborators that would otherwise reach the network.
type Overrides struct {
	Store    object.ObjectStore
	Parser   invoices.Parser
	Verifier auth.Verifier
	Repo     invoices.Repo
}

// Build prepares dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Overrides{})
}

// BuildWith is Build with optional replacements for external collaborators.
func BuildWith(ctx context.Context, cfg config.Config, ov Overrides) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.Storage.Type) == "" {
		cfg.Storage.Type = "local"
	}
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		cfg.Storage.Bucket = "invoices"
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "invoice-api"
	}

	app := &App{Config: cfg}

	repo := ov.Repo
	if repo == nil {
		var err error
		repo, err = app.buildRepo(ctx)
		if err != nil {
			return nil, err
		}
	}
	app.InvoicesRepo = repo

	filesDir := ""
	store := ov.Store
	if store == nil {
		var err error
		store, filesDir, err = buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	app.Store = store

	verifier := ov.Verifier
	if verifier == nil {
		var err error
		verifier, err = buildVerifier(cfg)
		if err != nil {
			return nil, err
		}
	}
	app.Verifier = verifier

	app.Parser = parser.NewClient(cfg.LLM.ServerURL, cfg.LLM.Timeout())
	var pipelineParser invoices.Parser = app.Parser
	if ov.Parser != nil {
		pipelineParser = ov.Parser
	}

	app.InvoiceService = &invoices.Service{
		Store:       store,
		Repo:        repo,
		Parser:      pipelineParser,
		StepTimeout: cfg.StepTimeout,
	}
	app.InvoiceHandler = invoices.NewHandler(app.InvoiceService, cfg.MaxUploadBytes)
	app.HealthHandler = health.NewHandler(health.NewService(cfg.ServiceName, app.Parser))

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Verifier:       verifier,
		InvoiceHandler: app.InvoiceHandler,
		HealthHandler:  app.HealthHandler,
		FilesDir:       filesDir,
	})

	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func (a *App) buildRepo(ctx context.Context) (invoices.Repo, error) {
	cfg := a.Config
	var repo invoices.Repo

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		a.DB = sqlDB
		repo = &invoices.PGRepo{DB: sqlDB}
	} else {
		repo = invoices.NewMemoryRepo()
	}

	if strings.TrimSpace(cfg.Redis.URL) == "" {
		return repo, nil
	}
	cache, err := invoices.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			return repo, nil
		}
		return nil, err
	}
	a.Cache = cache
	return &invoices.CachedRepo{Repo: repo, Cache: cache, TTL: cfg.Redis.TTL}, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts, err := db.OptionsFromEnv(db.DefaultServerOptions())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB.DB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, string, error) {
	sc := cfg.Storage
	switch sc.Type {
	case "s3":
		store, err := s3store.New(ctx, sc.AWSRegion, sc.Bucket, sc.S3Prefix, sc.S3PublicBaseURL)
		return store, "", err
	case "minio":
		store, err := miniostore.New(ctx, miniostore.Config{
			Endpoint:    sc.MinIOEndpoint,
			AccessKeyID: sc.MinIOAccessKey,
			SecretKey:   sc.MinIOSecretKey,
			UseSSL:      sc.MinIOUseSSL,
			Bucket:      sc.Bucket,
			Region:      sc.AWSRegion,
		})
		return store, "", err
	default:
		store, err := localstore.New(sc.LocalDir, sc.Bucket, sc.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Root(), nil
	}
}

func buildVerifier(cfg config.Config) (auth.Verifier, error) {
	switch cfg.Auth.Mode {
	case "remote":
		return auth.NewRemoteVerifier(cfg.Auth.URL, cfg.Auth.APIKey, nil)
	default:
		verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience)
		if err != nil {
			return nil, fmt.Errorf("AUTH_JWT_SECRET is required in jwt auth mode: %w", err)
		}
		return verifier, nil
	}
}
