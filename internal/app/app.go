// Package app wires configuration into a ready-to-use client stack.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/circuitbreaker"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/config"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/notify"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/request"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/resource"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/retry"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/session"
)

// App holds the wired client stack
type App struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Session  *session.Session
	Client   *request.Client
	API      *resource.API
	Notifier notify.Notifier

	closers []func() error
}

// Options are the pieces the caller supplies
type Options struct {
	Logger    logrus.FieldLogger
	Navigator request.Navigator
	// Notifier receives user notifications in addition to the configured transports
	Notifier notify.Notifier
}

// New opens the session store and notification transports and builds the client
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	a := &App{Config: cfg, Logger: opts.Logger}

	store, closeStore, err := OpenStore(ctx, cfg.Session, opts.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.Session = session.New(store)

	notifier, closeNotify, err := BuildNotifier(ctx, cfg.Notify, opts.Notifier, opts.Logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeNotify)
	a.Notifier = notifier

	clientOpts := []request.Option{
		request.WithTimeout(cfg.API.Timeout),
		request.WithNotifier(notifier),
		request.WithLogger(opts.Logger),
		request.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
	}
	if opts.Navigator != nil {
		clientOpts = append(clientOpts, request.WithNavigator(opts.Navigator))
	}
	if cfg.API.Retries > 0 {
		clientOpts = append(clientOpts, request.WithRetry(retry.Policy{
			MaxAttempts: cfg.API.Retries + 1,
			Backoff:     retry.DefaultExponential(),
		}))
	}
	if cfg.API.Breaker.Enabled {
		logger := opts.Logger
		clientOpts = append(clientOpts, request.WithCircuitBreaker(circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.API.Breaker.FailureThreshold,
			Cooldown:         cfg.API.Breaker.Cooldown,
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.WithFields(logrus.Fields{"from": from, "to": to}).Warn("API circuit breaker changed state")
			},
		})))
	}

	client, err := request.New(cfg.API.BaseURL, a.Session, clientOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Client = client
	a.API = resource.NewAPI(client)
	return a, nil
}

// Close releases every opened connection
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore creates the session store selected by cfg
func OpenStore(ctx context.Context, cfg config.SessionConfig, logger logrus.FieldLogger) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil

	case config.StoreFile, "":
		return session.NewFileStore(cfg.File), noop, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		return session.NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL), client.Close, nil

	case config.StorePostgres:
		if cfg.Migrations != "" {
			if err := session.RunMigrations(cfg.Postgres, cfg.Migrations); err != nil {
				return nil, nil, err
			}
			logger.WithField("path", cfg.Migrations).Debug("Session migrations applied")
		}
		db, err := session.OpenDB(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return session.NewDBStore(db, cfg.Namespace), func() error { return session.CloseDB(db) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// BuildNotifier combines the log notifier, base and the configured transports
func BuildNotifier(ctx context.Context, cfg config.NotifyConfig, base notify.Notifier, logger logrus.FieldLogger) (notify.Notifier, func() error, error) {
	multi := notify.Multi{notify.NewLogNotifier(logger)}
	if base != nil {
		multi = append(multi, base)
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	onErr := func(err error) {
		logger.WithError(err).Warn("Failed to deliver notification")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, client.Close)
		multi = append(multi, notify.FromSink(notify.NewRedisSink(client), "backoffice", onErr))
	}

	if cfg.NATSURL != "" {
		sink, err := notify.DialNATS(cfg.NATSURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, sink.Close)
		multi = append(multi, notify.FromSink(sink, "backoffice", onErr))
	}

	return multi, closeAll, nil
}
