// Package server wires configuration, storage, token handling and the
// HTTP and gRPC transports into a runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/buildinfo"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/instrumentation"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/secrets"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sweeper"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

// limiterIdleTTL is how long an idle per-client bucket is kept.
const limiterIdleTTL = 10 * time.Minute

var (
	loadSecretFromS3 = secrets.LoadFromS3
	openDB           = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	redis     *redis.Client
	service   *services.AuthService
	extractor *auth.Extractor
	sweeper   *sweeper.Sweeper
	ipLimiter *ratelimit.IPLimiter
	metrics   *instrumentation.Metrics
	telemetry *instrumentation.Provider
}

// NewApp validates c, connects to PostgreSQL (running migrations) and,
// when configured, to Redis.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(c.Env, c.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}

	secret, err := resolveSecret(ctx, c)
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := checkDefaultRole(ctx, rm.Roles(db)); err != nil {
		_ = db.Close()
		return nil, err
	}

	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	}

	app, err := assemble(c, logger, secret, db, rm, rdb)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	return app, nil
}

// resolveSecret returns the signing secret, preferring the S3 object when
// one is configured.
func resolveSecret(ctx context.Context, c *config.Config) ([]byte, error) {
	if c.S3SecretKeyObject == "" {
		return []byte(c.SecretKey), nil
	}

	secret, err := loadSecretFromS3(ctx, secrets.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		Key:          c.S3SecretKeyObject,
	})
	if err != nil {
		return nil, fmt.Errorf("load secret key: %w", err)
	}
	return secret, nil
}

// checkDefaultRole refuses to start when signup could never succeed.
func checkDefaultRole(ctx context.Context, r roles.Repository) error {
	if _, err := r.GetByName(ctx, common.DefaultRoleName); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: %s", common.ErrRoleNotConfigured, common.DefaultRoleName)
		}
		return fmt.Errorf("check default role: %w", err)
	}
	return nil
}

func assemble(c *config.Config, logger logging.Logger, secret []byte, db *sql.DB,
	rm repomanager.RepositoryManager, rdb *redis.Client) (*App, error) {

	policy, err := auth.NewPolicy(secret, c.Issuer, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	codec := auth.NewCodec(policy)

	telemetry, err := instrumentation.NewPrometheusProvider(buildinfo.Version())
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.Metrics()
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return nil, err
	}

	opts := []services.Option{services.WithRecorder(metrics)}
	if rdb != nil {
		opts = append(opts, services.WithLoginLimiter(
			ratelimit.NewLoginLimiter(rdb, c.MaxLoginAttempts, c.LoginCooldown, logger),
		))
	}

	svc, err := services.NewAuthService(db, rm, codec, password.NewBcryptHasher(c.BcryptCost), logger, opts...)
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return nil, err
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		redis:     rdb,
		service:   svc,
		extractor: auth.NewExtractor(codec, logger),
		sweeper:   sweeper.New(rm.RefreshTokens(db), c.SweepInterval, logger.With("module", "sweeper"), sweeper.WithRecorder(metrics)),
		ipLimiter: ratelimit.NewIPLimiter(c.RateLimitRPS, c.RateLimitBurst),
		metrics:   metrics,
		telemetry: telemetry,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context) error {
	router := httpapi.NewRouter(httpapi.NewHandler(app.service), app.extractor, app.logger,
		httpapi.RouterOptions{Limiter: app.ipLimiter, Recorder: app.metrics, Metrics: app.telemetry.Handler()})
	return httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger).Run(ctx)
}

func (app *App) startGRPCServer(ctx context.Context) error {
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.service, app.extractor).Run(ctx)
}

// cleanupLimiter drops idle per-client buckets until ctx is done.
func (app *App) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := app.ipLimiter.Cleanup(limiterIdleTTL); n > 0 {
				app.logger.Debug(ctx, "idle rate limit buckets removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or a
// transport fails. Storage connections are closed on return.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err.Error())
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	if app.config.EndpointAddrHTTP != "" {
		run("http", app.startHTTPServer)
	}
	if app.config.EndpointAddrGRPC != "" {
		run("grpc", app.startGRPCServer)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.cleanupLimiter(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(append(errs, app.close())...)
}

func (app *App) close() error {
	var errs []error
	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, app.telemetry.Shutdown(ctx))
		cancel()
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
