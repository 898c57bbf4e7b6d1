package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/thesis-workflow/config"
	"github.com/upb/thesis-workflow/handlers"
	"github.com/upb/thesis-workflow/middleware"
	"github.com/upb/thesis-workflow/repositories"
	"github.com/upb/thesis-workflow/repositories/postgres"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/services/activity"
	"github.com/upb/thesis-workflow/services/notify"
	"github.com/upb/thesis-workflow/services/ratelimit"
	"github.com/upb/thesis-workflow/services/storage"
	"github.com/upb/thesis-workflow/token"
	"go.uber.org/zap"
)

// defaultStopTimeout bounds the activity drain when Close gets a context without deadline
const defaultStopTimeout = 10 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users      repositories.UserRepository
	Proposals  repositories.ProposalRepository
	Guidances  repositories.GuidanceRepository
	Exams      repositories.ExamRepository
	Activities repositories.ActivityRepository
	TxManager  repositories.TransactionManager

	// Side effects
	Tokens   *token.Codec
	Limiter  *ratelimit.LoginLimiter
	Store    storage.FileStore
	Notifier notify.Notifier
	Activity *activity.Service
	Effects  *services.Effects

	// Services
	AuthService     *services.AuthService
	UserService     *services.UserService
	ProposalService *services.ProposalService
	GuidanceService *services.GuidanceService
	ExamService     *services.ExamService

	// HTTP
	AuthMiddleware   *middleware.AuthMiddleware
	PolicyMiddleware *middleware.PolicyMiddleware
	MultipartIngest  *middleware.MultipartIngest

	HealthHandler   *handlers.HealthHandler
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	ProposalHandler *handlers.ProposalHandler
	GuidanceHandler *handlers.GuidanceHandler
	ExamHandler     *handlers.ExamHandler
	ActivityHandler *handlers.ActivityHandler
}

// NewDependencies opens the database and file store, then wires everything else
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Info("database schema initialized")
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	return NewDependenciesWith(cfg, factory, store, logger)
}

// NewDependenciesWith wires the application over an open repository factory and file store
func NewDependenciesWith(cfg *config.Config, factory *postgres.RepositoryFactory, store storage.FileStore, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Store:       store,
	}

	deps.initRepositories()

	deps.initEffects(cfg)

	if err := deps.initServices(cfg); err != nil {
		return nil, err
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("chat_relay", cfg.Chat.WebhookURL != ""))
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Proposals = repos.Proposals
	d.Guidances = repos.Guidances
	d.Exams = repos.Exams
	d.Activities = repos.Activities
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initEffects builds the activity logger and chat relay used by every service
func (d *Dependencies) initEffects(cfg *config.Config) {
	activityCfg := activity.DefaultConfig()
	if cfg.Activity.BufferSize > 0 {
		activityCfg.BufferSize = cfg.Activity.BufferSize
	}
	if cfg.Activity.WorkerCount > 0 {
		activityCfg.WorkerCount = cfg.Activity.WorkerCount
	}
	d.Activity = activity.NewService(d.Activities, d.Logger, activityCfg)

	webhook := notify.NewWebhookNotifier(notify.Config{
		WebhookURL: cfg.Chat.WebhookURL,
		Timeout:    cfg.Chat.Timeout,
		MaxRetries: cfg.Chat.MaxRetries,
		RetryDelay: cfg.Chat.RetryDelay,
	}, d.Logger)
	if webhook.Enabled() {
		d.Notifier = webhook
	} else {
		d.Logger.Warn("chat webhook not configured, announcements disabled")
		d.Notifier = notify.Nop{}
	}

	d.Effects = services.NewEffects(d.Activity, d.Notifier, d.Logger)
}

// initServices builds the token codec and domain services
func (d *Dependencies) initServices(cfg *config.Config) error {
	codec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.Secret,
		Expiry: cfg.Token.Expiry,
		Issuer: cfg.Token.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	d.Tokens = codec

	d.Limiter = ratelimit.NewLoginLimiter(ratelimit.Config{
		MaxAttempts: cfg.Login.MaxAttempts,
		Window:      cfg.Login.Window,
	}, d.Logger)

	d.AuthService = services.NewAuthService(d.Users, codec, d.Effects, d.Logger).WithThrottle(d.Limiter)
	d.UserService = services.NewUserService(d.Users, d.Effects, d.Logger)
	d.ProposalService = services.NewProposalService(d.Proposals, d.Users, d.Store, d.Effects, d.Logger)
	d.GuidanceService = services.NewGuidanceService(d.Guidances, d.Proposals, d.Store, d.Effects, d.Logger)
	d.ExamService = services.NewExamService(d.Exams, d.Proposals, d.Users, d.TxManager, d.Effects, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHTTP builds middleware and handlers
func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Logger)
	d.PolicyMiddleware = middleware.NewPolicyMiddleware(d.Logger)
	d.MultipartIngest = middleware.NewMultipartIngest(cfg.Upload.MaxFileSize, d.Logger)

	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Activity, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Logger)
	d.ProposalHandler = handlers.NewProposalHandler(d.ProposalService, d.Logger)
	d.GuidanceHandler = handlers.NewGuidanceHandler(d.GuidanceService, d.Logger)
	d.ExamHandler = handlers.NewExamHandler(d.ExamService, d.Logger)
	d.ActivityHandler = handlers.NewActivityHandler(d.Activity, d.Logger)
}

// Start launches background workers. The limiter cleanup runs until ctx is done.
func (d *Dependencies) Start(ctx context.Context) error {
	if err := d.Activity.Start(); err != nil {
		return fmt.Errorf("failed to start activity service: %w", err)
	}

	interval := d.Config.Login.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go d.Limiter.StartCleanupWorker(ctx, interval)
	return nil
}

// Close gracefully shuts down all dependencies. Pending announcements are
// awaited first, since they may still record activity, then the activity
// buffer is drained before the pool closes.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Effects != nil {
		done := make(chan struct{})
		go func() {
			d.Effects.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("announcements still pending: %w", ctx.Err()))
		}
	}

	if d.Activity != nil && d.Activity.GetStats().Started {
		timeout := defaultStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Activity.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop activity service: %w", err))
		}
	}

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close file storage: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
