package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/marked/internal/audit"
	"github.com/mrlokans/marked/internal/auth"
	"github.com/mrlokans/marked/internal/cache"
	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database"
	auditrepo "github.com/mrlokans/marked/internal/database/audit"
	"github.com/mrlokans/marked/internal/database/folders"
	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/database/links"
	"github.com/mrlokans/marked/internal/database/tags"
	"github.com/mrlokans/marked/internal/database/users"
	http_controllers "github.com/mrlokans/marked/internal/http"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/ratelimit"
	"github.com/mrlokans/marked/internal/scheduler"
	"github.com/mrlokans/marked/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", logger.Error(err))
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", logger.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop taking uploads before draining the workers that run them.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Error(err))
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	defer log.Sync()

	log.Info("starting marked", logger.String("version", version))
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database", logger.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", logger.Error(err))
		}
	}()

	canon := canonical.Default()
	if cfg.Import.TrackingParamsFile != "" {
		extra, err := canonical.LoadTrackingParams(cfg.Import.TrackingParamsFile)
		if err != nil {
			log.Fatal("failed to load tracking params", logger.Error(err))
		}
		canon = canonical.New(extra...)
		log.Info("loaded extra tracking params", logger.Int("count", len(extra)))
	}

	jobRepo := jobs.NewRepository(db.DB)
	linkRepo := links.NewRepository(db.DB)
	folderRepo := folders.NewRepository(db.DB)
	tagRepo := tags.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB), log)

	pipeline := importers.NewPipeline(database.NewImportStore(db.DB), jobRepo, canon, log)

	redisClient := connectRedis(cfg.Redis, log)
	if redisClient != nil {
		pipeline.SetCache(cache.NewCanonicalCache(redisClient, cfg.Redis.CanonicalTTL, log))
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("error closing redis", logger.Error(err))
			}
		}()
	}

	runner := tasks.NewImportRunner(jobRepo, pipeline, auditService, cfg.Import.TaskTimeout, log)

	var (
		dispatcher    tasks.Dispatcher
		pending       scheduler.PendingChecker
		inline        *tasks.InlineDispatcher
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
	)
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, log)
		if err != nil {
			log.Fatal("failed to initialize task queue", logger.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", logger.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewImportBookmarksQueue(runner),
			tasks.NewCleanupAuditEventsQueue(auditService, log),
			tasks.NewCleanupOrphanTagsQueue(tagRepo, log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		queue := tasks.NewQueueDispatcher(taskClient, jobRepo, log)
		dispatcher, pending = queue, queue
	} else {
		log.Info("task queue disabled, running imports in process", logger.Int("workers", cfg.Tasks.Workers))
		inline = tasks.NewInlineDispatcher(runner, cfg.Tasks.Workers, log)
		dispatcher, pending = inline, inline
	}

	sched := newScheduler(cfg, jobRepo, pending, auditService, tagRepo, taskClient, log)
	sched.Start(context.Background())

	var authMiddleware *auth.Middleware
	if cfg.Auth.Mode == config.AuthModeToken {
		log.Info("authentication mode: token")
		authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
		authMiddleware = auth.NewMiddleware(authService, cfg.Auth, log)
	} else {
		log.Info("authentication mode: none (no authentication required)")
	}

	var uploadLimiter *ratelimit.KeyedRateLimiter
	if cfg.Import.UploadRate > 0 {
		uploadLimiter = ratelimit.New(cfg.Import.UploadRate, cfg.Import.UploadBurst, time.Hour)
		defer uploadLimiter.Stop()
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Jobs:           jobRepo,
		Links:          linkRepo,
		Folders:        folderRepo,
		Tags:           tagRepo,
		Auditor:        auditService,
		Dispatcher:     dispatcher,
		Canonicalizer:  canon,
		Import:         cfg.Import,
		AuthMiddleware: authMiddleware,
		UploadLimiter:  uploadLimiter,
		HSTS:           cfg.HTTP.HSTS,
		Logger:         log,
		Version:        version,
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if inline != nil && !inline.Shutdown(ctx) {
			log.Warn("inline imports cancelled at shutdown; the reaper will fail them")
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	Serve(router, cfg, log, onShutdown)
}

// connectRedis returns nil when Redis is not configured or unreachable;
// imports then go straight to the database.
func connectRedis(cfg config.Redis, log logger.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	opts := cache.DefaultConnectOptions(cfg.Addr)
	opts.Password = cfg.Password
	opts.DB = cfg.DB
	if cfg.ConnectTimeout > 0 {
		opts.ConnectTimeout = cfg.ConnectTimeout
	}

	client, err := cache.Connect(context.Background(), opts, log.Named("redis"))
	if err != nil {
		log.Warn("redis unavailable, canonical cache disabled", logger.Error(err))
		return nil
	}
	return client
}

// newScheduler registers the maintenance jobs. Cleanups go through the task
// queue when it is enabled and run directly otherwise. pending decides which
// old queued imports the reaper may fail.
func newScheduler(cfg *config.Config, jobRepo *jobs.Repository, pending scheduler.PendingChecker, auditService *audit.Service, tagRepo *tags.Repository, taskClient *tasks.Client, log logger.Logger) *scheduler.Scheduler {
	sched := scheduler.New(5*time.Minute, log)

	reaper := scheduler.StaleImportReaper(jobRepo, pending, cfg.Import.StaleAfter, cfg.Import.ReaperSchedule, log)
	auditJob := scheduler.Job{
		Name:     scheduler.JobAuditCleanup,
		Schedule: cfg.Audit.CleanupSchedule,
		Run: func(ctx context.Context) error {
			return tasks.CleanupAuditEvents(ctx, auditService, cfg.Audit.RetentionDays, log)
		},
	}
	tagJob := scheduler.Job{
		Name:     scheduler.JobOrphanTagCleanup,
		Schedule: cfg.Tasks.TagCleanupSchedule,
		Run: func(ctx context.Context) error {
			return tasks.CleanupOrphanTags(ctx, tagRepo, log)
		},
	}
	if taskClient != nil {
		auditJob = scheduler.EnqueueTask(scheduler.JobAuditCleanup, cfg.Audit.CleanupSchedule, taskClient,
			tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays})
		tagJob = scheduler.EnqueueTask(scheduler.JobOrphanTagCleanup, cfg.Tasks.TagCleanupSchedule, taskClient,
			tasks.CleanupOrphanTagsTask{})
	}

	for _, job := range []scheduler.Job{reaper, auditJob, tagJob} {
		if err := sched.Add(job); err != nil {
			log.Fatal("invalid maintenance schedule", logger.String("job", job.Name), logger.Error(err))
		}
	}
	return sched
}
