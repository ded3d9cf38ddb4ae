package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/config"
	"github.com/keepdeck/keep/internal/export"
	"github.com/keepdeck/keep/internal/extract"
	"github.com/keepdeck/keep/internal/httpserver"
	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/intake"
	"github.com/keepdeck/keep/internal/logger"
	"github.com/keepdeck/keep/internal/redis"
	"github.com/keepdeck/keep/internal/scheduler"
	redisstore "github.com/keepdeck/keep/internal/store/redis"
	"github.com/keepdeck/keep/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	catalog     *catalog.Catalog
	verifier    *scheduler.LocationVerifier
	snapshotter *scheduler.Snapshotter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)
	cat := catalog.New(store, loggerClient)

	// Sync the catalog from Redis on startup.
	if err := cat.Load(context.Background()); err != nil {
		loggerClient.Warn("failed to load catalog from redis on startup",
			logger.Error(err))
	}

	// Empty catalog plus an existing snapshot file means Redis was lost:
	// restore from the last snapshot.
	if cat.Len() == 0 && cfg.SnapshotFile != "" {
		restoreFromSnapshot(context.Background(), cfg.SnapshotFile, cat, loggerClient)
	}

	// Permanent-storage client. Without a wallet the archival phase is
	// still navigable but reported unavailable, every upload would fail.
	arkb := archive.NewArkbClient(archive.ArkbOptions{
		Binary:     cfg.ArkbBinary,
		WalletPath: cfg.WalletFile,
		GatewayURL: cfg.GatewayURL,
	}, loggerClient)

	var archiveClient archive.Client
	if cfg.ArchivalEnabled() {
		archiveClient = arkb
		loggerClient.Info("permanent storage enabled",
			logger.String("wallet", cfg.WalletFile),
			logger.String("gateway", cfg.GatewayURL))
	} else {
		loggerClient.Info("no wallet configured, permanent storage disabled")
	}

	uploader := archive.NewUploader(arkb, loggerClient)
	extractor := extract.NewHTTPExtractor(cfg.ExtractTimeout, loggerClient)
	assembler := intake.NewAssembler(cat, cfg.GatewayURL, loggerClient)
	manager := intake.NewManager(uploader, extractor, assembler, loggerClient)

	verifyTrigger := make(chan struct{}, 1)
	verifier := scheduler.NewLocationVerifier(cat, loggerClient, cfg.VerifyInterval, cfg.VerifyTimeout, verifyTrigger)

	var snapshotter *scheduler.Snapshotter
	var snapshotTrigger chan struct{}
	if cfg.SnapshotFile != "" {
		snapshotTrigger = make(chan struct{}, 1)
		snapshotter = scheduler.NewSnapshotter(cat, cfg.SnapshotFile, loggerClient, cfg.SnapshotInterval, snapshotTrigger)
	} else {
		loggerClient.Info("snapshot file not configured, catalog snapshots disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		RedisClient:     redisClient,
		Store:           store,
		Catalog:         cat,
		Manager:         manager,
		ArchiveClient:   archiveClient,
		GatewayURL:      cfg.GatewayURL,
		SnapshotTrigger: snapshotTrigger,
		VerifyTrigger:   verifyTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		catalog:     cat,
		verifier:    verifier,
		snapshotter: snapshotter,
	}
}

// restoreFromSnapshot replays a YAML snapshot into an empty catalog.
func restoreFromSnapshot(ctx context.Context, path string, cat *catalog.Catalog, log logger.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	resources, err := export.LoadSnapshot(path)
	if err != nil {
		log.Warn("failed to read catalog snapshot, starting empty",
			logger.String("path", path),
			logger.Error(err))
		return
	}

	restored := 0
	for _, r := range resources {
		if _, err := cat.Add(ctx, r); err != nil {
			log.Warn("failed to restore resource from snapshot",
				logger.String("resource_id", r.ID),
				logger.Error(err))
			continue
		}
		restored++
	}
	log.Info("catalog restored from snapshot",
		logger.String("path", path),
		logger.Int("restored", restored))
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Keep v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Keep %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start location verifier
	a.verifier.Start(ctx)
	a.logger.Info("location verifier started",
		logger.Duration("interval", a.cfg.VerifyInterval))

	// Start snapshotter (if enabled)
	if a.snapshotter != nil {
		a.snapshotter.Start(ctx)
		a.logger.Info("catalog snapshotter started",
			logger.String("file", a.cfg.SnapshotFile),
			logger.Duration("interval", a.cfg.SnapshotInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.verifier.Stop()

	if a.snapshotter != nil {
		a.snapshotter.Stop()
		// Final snapshot so nothing cataloged this session is lost.
		if err := a.snapshotter.Snapshot(); err != nil {
			a.logger.Warnf("failed to write final snapshot: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Keep stopped cleanly")
	return nil
}
