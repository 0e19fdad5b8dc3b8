package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/ZaguanLabs/vertrans/api"
	"github.com/ZaguanLabs/vertrans/docstore"
	"github.com/ZaguanLabs/vertrans/provider"
	"github.com/ZaguanLabs/vertrans/queue"
	"github.com/ZaguanLabs/vertrans/settings"
	"github.com/ZaguanLabs/vertrans/store"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
)

// app holds the wired service.
type app struct {
	opts     options
	logger   *zap.SugaredLogger
	db       *bun.DB
	redis    *redis.Client
	store    vertrans.TranslationStore
	repo     settings.Repository
	docs     vertrans.DocumentStore
	orch     *vertrans.Orchestrator
	consumer queue.Consumer
}

func newApp(ctx context.Context, opts options, logger *zap.SugaredLogger) (*app, error) {
	a := &app{opts: opts, logger: logger}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	if a.opts.dsn != "" {
		db, err := openDB(a.opts.db, a.opts.dsn)
		if err != nil {
			return err
		}
		a.db = db
	}
	if a.opts.store == "redis" || a.opts.queue == "redis" {
		client, err := openRedis(ctx, a.opts.redisURL)
		if err != nil {
			return err
		}
		a.redis = client
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = st

	repo, err := a.openSettings(ctx)
	if err != nil {
		return err
	}
	a.repo = repo

	if a.opts.frappeURL != "" {
		docs, err := docstore.NewFrappe(docstore.FrappeConfig{
			BaseURL:   a.opts.frappeURL,
			APIKey:    a.opts.frappeKey,
			APISecret: a.opts.frappeSecret,
		})
		if err != nil {
			return err
		}
		a.docs = docs
	}

	retry := vertrans.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		a.logger.Warnw("retrying provider call", "attempt", attempt, "delay", delay, "error", err)
	}
	factory := provider.NewFactory(provider.FactoryConfig{
		Backend:             a.opts.backend,
		OpenAIKey:           a.opts.openAIKey,
		OpenAIModel:         a.opts.openAIModel,
		RequestsPerMinute:   a.opts.rpm,
		CharactersPerMinute: a.opts.cpm,
		Retry:               &retry,
	})

	orchOpts := []vertrans.OrchestratorOption{
		vertrans.WithLogger(a.logger),
		vertrans.WithProviderFactory(factory),
	}
	if a.opts.queue == "redis" {
		q := queue.NewRedis(a.redis, "")
		a.consumer = q
		orchOpts = append(orchOpts, vertrans.WithDispatcher(q))
	} else if a.opts.queue != "inline" {
		return fmt.Errorf("unknown queue %q", a.opts.queue)
	}
	a.orch = vertrans.NewOrchestrator(a.docs, a.repo, a.store, nil, orchOpts...)
	return nil
}

func openDB(dialect, dsn string) (*bun.DB, error) {
	switch dialect {
	case "sqlite":
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
	return nil, fmt.Errorf("unknown database dialect %q", dialect)
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis URL required (-redis-url or VERTRANS_REDIS_URL)")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func (a *app) openStore(ctx context.Context) (vertrans.TranslationStore, error) {
	switch a.opts.store {
	case "memory":
		return store.NewMemory(), nil
	case "redis":
		return store.NewRedisFromClient(a.redis, a.opts.redisTTL, ""), nil
	case "sql":
		if a.db == nil {
			return nil, errors.New("sql store needs -dsn")
		}
		st := store.NewBun(a.db)
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating translation store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store %q", a.opts.store)
}

// openSettings uses the SQL database when one is configured and seeds the
// settings from the command line when none are stored yet.
func (a *app) openSettings(ctx context.Context) (settings.Repository, error) {
	var repo settings.Repository
	if a.db != nil {
		bunRepo := settings.NewBunRepository(a.db)
		if err := bunRepo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating settings: %w", err)
		}
		repo = bunRepo
	} else {
		repo = settings.NewMemoryRepository()
	}

	_, err := repo.Settings(ctx)
	if err == nil || !vertrans.IsNotFound(err) {
		return repo, err
	}
	if a.opts.apiKey == "" && a.opts.targets == "" {
		return repo, nil
	}
	seed := vertrans.Settings{
		APIKey:                a.opts.apiKey,
		EnableAutoTranslation: true,
		AutoTranslateOnUpdate: true,
		SourceLanguage:        a.opts.source,
		TargetLanguages:       a.opts.targets,
	}
	if _, err := repo.UpsertSettings(ctx, seed); err != nil {
		return nil, fmt.Errorf("seeding settings: %w", err)
	}
	a.logger.Infow("translation settings seeded", "source", seed.Source(), "targets", seed.TargetLanguages)
	return repo, nil
}

// Serve runs the HTTP API and, with a redis queue, the job workers until
// ctx is cancelled.
func (a *app) Serve(ctx context.Context) error {
	if a.docs == nil {
		return errors.New("document store URL required (-frappe-url or VERTRANS_FRAPPE_URL)")
	}

	go a.watchSettings(ctx)

	workerDone := make(chan struct{})
	if a.consumer != nil {
		w := queue.NewWorker(a.consumer, a.orch.HandleJob, a.logger, queue.WorkerConfig{
			Concurrency: a.opts.workers,
			JobTimeout:  10 * time.Minute,
		})
		go func() {
			defer close(workerDone)
			w.Run(ctx)
		}()
	} else {
		close(workerDone)
		if a.opts.workerOnly {
			return errors.New("-worker needs -queue redis")
		}
	}

	if a.opts.workerOnly {
		a.logger.Infow("worker started", "workers", a.opts.workers)
		<-ctx.Done()
		<-workerDone
		a.logger.Infow("worker stopped")
		return nil
	}

	srv := &http.Server{
		Addr:              a.opts.addr,
		Handler:           api.NewServer(a.orch, a.repo, a.docs, a.store, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infow("http server listening", "addr", a.opts.addr, "store", a.opts.store, "queue", a.opts.queue)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Infow("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Errorw("http server shutdown failed", "error", err)
	}

	<-workerDone
	if inline, ok := a.orch.Dispatcher().(*vertrans.InlineDispatcher); ok {
		inline.Wait()
	}
	a.logger.Infow("server stopped")
	return nil
}

func (a *app) watchSettings(ctx context.Context) {
	events, err := a.repo.Subscribe(ctx)
	if err != nil {
		a.logger.Warnw("settings subscription failed", "error", err)
		return
	}
	for evt := range events {
		switch {
		case evt.Settings != nil:
			a.logger.Infow("translation settings changed", "type", evt.Type,
				"autoTranslate", evt.Settings.EnableAutoTranslation, "targets", evt.Settings.TargetLanguages)
		case evt.Map != nil:
			a.logger.Infow("translation map changed", "type", evt.Type,
				"name", evt.Map.Name, "recordType", evt.Map.RecordType, "active", evt.Map.IsActive)
		}
	}
}

func runExport(ctx context.Context, a *app, path string, stdout io.Writer) error {
	n, err := store.NewExporter(a.store).ExportToFile(ctx, path, map[string]string{
		"store":   a.opts.store,
		"version": vertrans.FullVersion(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d translations to %s\n", n, path)
	return nil
}

func runImport(ctx context.Context, a *app, path string, stdout io.Writer) error {
	result, err := store.NewImporter(a.store).ImportFromFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d translations from %s (%d failed)\n", result.Imported, path, result.Failed)
	return nil
}

// Close releases database and redis connections.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Errorw("failed to close database", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Errorw("failed to close redis", "error", err)
		}
	}
}
