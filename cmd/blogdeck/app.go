package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/internal/content"
	"github.com/blogdeck/admin/internal/database"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/document/service"
	"github.com/blogdeck/admin/internal/keylock"
	"github.com/blogdeck/admin/internal/render"
	"github.com/blogdeck/admin/pkg/logger"
)

// app holds the long-lived pieces shared by every command.
type app struct {
	cfg       *config.Config
	fs        afero.Fs
	repo      repository.Repository
	processor *content.Processor
	docs      service.Service
	mongo     *mongo.Client
	redis     *redis.Client
}

// newApp connects optional backends and loads the source directory into the
// content store.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, fs: afero.NewOsFs()}

	if cfg.MongoDB.URI != "" {
		client, err := connectMongo(ctx, cfg.MongoDB)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, using in-memory store: %v", err)
		} else {
			a.mongo = client
		}
	}
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			a.redis = client
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	a.repo = repository.NewMemoryRepo()
	if a.mongo != nil {
		col := a.mongo.Database(cfg.MongoDB.Database).Collection("documents")
		repo, err := repository.NewMongoRepo(ctx, col)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.repo = repo
	}

	locks := keylock.New()
	renderer := render.NewMarkdown()
	a.processor = content.NewProcessor(a.fs, a.repo, renderer, cfg.Site, locks)
	n, err := a.processor.Scan(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("scan %s: %w", cfg.Site.SourceDir, err)
	}
	logger.Infof("loaded %d documents from %s", n, cfg.Site.SourceDir)
	a.docs = service.NewService(a.fs, a.repo, renderer, cfg.Site, locks)
	return a, nil
}

// connectMongo retries with backoff to tolerate startup races.
func connectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

func (a *app) Close(ctx context.Context) {
	if a.mongo != nil {
		_ = a.mongo.Disconnect(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
