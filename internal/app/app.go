// Package app wires configuration into stores, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carolinavmo/PMR-atlas/internal/config"
	"github.com/carolinavmo/PMR-atlas/internal/database"
	"github.com/carolinavmo/PMR-atlas/internal/disease/repository"
	"github.com/carolinavmo/PMR-atlas/internal/disease/service"
	"github.com/carolinavmo/PMR-atlas/internal/history"
	"github.com/carolinavmo/PMR-atlas/internal/media"
	"github.com/carolinavmo/PMR-atlas/internal/oidc"
	"github.com/carolinavmo/PMR-atlas/internal/reader"
	"github.com/carolinavmo/PMR-atlas/internal/sanitize"
	"github.com/carolinavmo/PMR-atlas/internal/sessions"
	"github.com/carolinavmo/PMR-atlas/internal/storage"
	"github.com/carolinavmo/PMR-atlas/internal/tokens"
	"github.com/carolinavmo/PMR-atlas/internal/translate"
	"github.com/carolinavmo/PMR-atlas/internal/users"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

const mongoConnectAttempts = 5

// App holds every long-lived dependency of the server.
type App struct {
	Config *config.Config

	Mongo *mongo.Client
	Redis *redis.Client

	Diseases    repository.Repository
	History     history.Log
	Journal     history.Journal
	Recorder    *history.Recorder
	Reconciler  *history.Reconciler
	Editor      *service.Service
	Users       *users.Service
	Sessions    *sessions.Service
	Revocations *sessions.Revocations
	Reader      *reader.Service
	Media       *media.Service
	Verifier    middleware.Verifier
	Registry    *prometheus.Registry

	started time.Time
}

// Build connects the configured backends. Mongo, Redis and MinIO are
// optional; each falls back to an in-process implementation when unset.
// A configured backend that cannot be reached is an error.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, started: time.Now()}

	if cfg.Redis.Host != "" {
		rc, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.Redis = rc
		logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
	}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			a.closeRedis()
			return nil, err
		}
		a.Mongo = client
		logger.Infof("connected to MongoDB database %s", cfg.MongoDB.Database)
	}

	a.buildStores()
	if err := a.buildServices(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(a.Registry)
	return a, nil
}

func (a *App) buildStores() {
	var (
		userRepo    users.UserRepository
		sessionRepo sessions.Repository
		readerStore reader.Store
	)
	if a.Mongo != nil {
		db := a.Mongo.Database(a.Config.MongoDB.Database)
		a.Diseases = repository.NewMongoRepo(db.Collection(database.DiseasesCollection))
		a.History = history.NewMongoLog(db.Collection(database.HistoryCollection))
		userRepo = users.NewMongoUserRepository(db.Collection(database.UsersCollection))
		sessionRepo = sessions.NewMongoRepository(db.Collection(database.SessionsCollection))
		readerStore = reader.NewMongoStore(
			db.Collection(database.BookmarksCollection),
			db.Collection(database.NotesCollection),
			db.Collection(database.RecentViewsCollection),
		)
	} else {
		logger.Warnf("MONGODB_URI not set: using in-memory stores, data is lost on restart")
		a.Diseases = repository.NewMemoryRepo()
		a.History = history.NewMemoryLog()
		userRepo = users.NewMemoryUserRepository()
		sessionRepo = sessions.NewMemoryRepository()
		readerStore = reader.NewMemoryStore()
	}

	if a.Redis != nil {
		// Redis-backed sessions expire on their own; prefer them over Mongo.
		sessionRepo = sessions.NewRedisRepository(a.Redis, "session:")
		a.Journal = history.NewRedisJournal(a.Redis, database.HistoryPendingListRedis)
	} else {
		a.Journal = history.NewMemoryJournal()
	}
	a.Revocations = sessions.NewRevocations(a.Redis)

	a.Users = users.NewService(userRepo)
	a.Sessions = sessions.NewService(sessionRepo)
	a.Recorder = history.NewRecorder(a.History, a.Journal)
	a.Reconciler = history.NewReconciler(a.History, a.Journal)
	a.Reader = reader.NewService(readerStore, a.Diseases)
}

func (a *App) buildServices(ctx context.Context) error {
	cfg := a.Config

	var provider translate.Provider = translate.Unavailable{}
	if cfg.Translation.APIKey != "" {
		p, err := translate.NewAnthropicProvider(cfg.Translation.APIKey, cfg.Translation.BaseURL, cfg.Translation.Model, cfg.Translation.MaxTokens)
		if err != nil {
			return fmt.Errorf("translation provider: %w", err)
		}
		provider = p
		if a.Redis != nil && cfg.Translation.CacheTTL > 0 {
			provider = translate.NewCached(p, a.Redis, cfg.Translation.CacheTTL)
		}
		logger.Infof("translation enabled with model %s", cfg.Translation.Model)
	} else {
		logger.Warnf("ANTHROPIC_API_KEY not set: translation endpoints answer 503")
	}

	opts := service.DefaultOptions()
	opts.Concurrency = cfg.Translation.Concurrency
	if cfg.Translation.Timeout > 0 {
		opts.CallTimeout = cfg.Translation.Timeout
	}
	a.Editor = service.New(a.Diseases, a.Recorder, provider, sanitize.New(), opts).WithCascade(a.Reader)

	var store storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		store = s
		logger.Infof("media stored in MinIO bucket %s", cfg.MinIO.Bucket)
	} else {
		logger.Warnf("MINIO_ENDPOINT not set: uploaded media is kept in memory")
		store = storage.NewMemoryStorage()
	}
	a.Media = media.NewService(store, cfg.MinIO.MaxUploadBytes)

	verifiers := []middleware.Verifier{tokens.NewHS256Verifier(cfg.JWT.Secret)}
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		v, err := oidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("OIDC verifier disabled: %v", err)
		} else {
			verifiers = append(verifiers, v)
			logger.Infof("accepting ID tokens from %s", v.Issuer())
		}
	}
	a.Verifier = middleware.Chain(verifiers...)
	return nil
}

// SeedAdmin creates the initial admin when a seed password is configured.
func (a *App) SeedAdmin(ctx context.Context) error {
	s := a.Config.Seed
	if s.AdminPassword == "" {
		return nil
	}
	u, created, err := a.Users.EnsureAdmin(ctx, s.AdminEmail, s.AdminPassword, s.AdminName)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Infof("seeded admin account %s", u.Email)
	}
	return nil
}

// Close releases the backend connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func (a *App) closeRedis() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
