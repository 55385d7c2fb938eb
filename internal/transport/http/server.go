package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lbryio/comment-server/internal/cache"
	"github.com/lbryio/comment-server/internal/config"
	"github.com/lbryio/comment-server/internal/database"
	"github.com/lbryio/comment-server/internal/handler"
	"github.com/lbryio/comment-server/internal/lbrynet"
	"github.com/lbryio/comment-server/internal/notify"
	"github.com/lbryio/comment-server/internal/observability"
	"github.com/lbryio/comment-server/internal/queue"
	redisclient "github.com/lbryio/comment-server/internal/redis"
	"github.com/lbryio/comment-server/internal/repository"
	"github.com/lbryio/comment-server/internal/rpc"
	"github.com/lbryio/comment-server/internal/service"
	"github.com/lbryio/comment-server/internal/storage"
	"github.com/lbryio/comment-server/internal/worker"
	"github.com/lbryio/comment-server/internal/writer"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Open the store: one writer connection, a read-only pool
	writeDB, err := database.OpenWriter(cfg.DBPath)
	if err != nil {
		return err
	}
	readDB, err := database.OpenReader(cfg.DBPath, database.DefaultReadConns)
	if err != nil {
		writeDB.Close()
		return err
	}
	defer readDB.Close()

	w := writer.New(writeDB, cfg.WriterQueueSize)
	w.Start()
	defer func() {
		if err := w.Stop(); err != nil {
			log.Printf("[Server] Writer stop FAILED: err=%v", err)
		}
	}()

	// 3. Optional Redis: claim cache and notification stream
	var rdb *redisclient.Client
	if cfg.RedisURL != "" {
		rdb, err = redisclient.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	var resolver lbrynet.Resolver = lbrynet.NewClient(cfg.LbrynetURL)
	if rdb != nil && cfg.ClaimCacheTTL > 0 {
		resolver = lbrynet.NewCachedResolver(resolver, cache.NewClaimCache(rdb.Client, cfg.ClaimCacheTTL))
	}

	// 4. Notifications
	notifier, stopNotifier, err := newNotifier(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer stopNotifier()

	var alerter notify.Alerter = notify.NopAlerter{}
	if cfg.SlackWebhook != "" {
		alerter = notify.NewSlack(cfg.SlackWebhook)
	}

	// 5. Service and transport
	commentService := service.NewCommentService(
		repository.NewCommentRepository(readDB),
		w,
		resolver,
		notifier,
	)
	router := NewRouter(RouterConfig{
		RPCHandler: handler.NewRPCHandler(rpc.NewServer(commentService, alerter)),
	})

	backupDone := make(chan struct{})
	go func() {
		defer close(backupDone)
		runBackups(ctx, cfg, readDB)
	}()

	srv := &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening: addr=%s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-backupDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown FAILED: err=%v", err)
	}
	<-backupDone
	return nil
}

// newNotifier picks the fan-out path. Without a notification URL events are
// dropped; with Redis they go through the stream and the worker manager.
func newNotifier(ctx context.Context, cfg *config.Config, rdb *redisclient.Client) (notify.Notifier, func(), error) {
	if cfg.NotificationURL == "" {
		log.Println("[Server] NOTIFICATION_URL not set, notifications disabled")
		return notify.Nop{}, func() {}, nil
	}
	webhook := notify.NewWebhook(cfg.NotificationURL, cfg.NotificationAuthToken)

	if rdb == nil {
		d := notify.NewDispatcher(webhook)
		return d, d.Stop, nil
	}

	stream := queue.NewNotificationStream(rdb.Client)
	manager := worker.NewManager(stream, worker.NewHandler(webhook), worker.DefaultManagerConfig())
	if err := manager.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start notification workers: %w", err)
	}
	return notify.NewStreamNotifier(stream), manager.Stop, nil
}

// runBackups snapshots the store every BackupInterval until ctx is done.
func runBackups(ctx context.Context, cfg *config.Config, db *sqlx.DB) {
	if cfg.BackupPath == "" || cfg.BackupInterval <= 0 {
		return
	}

	var uploader *storage.BackupUploader
	if cfg.BackupUploadEnabled() {
		u, err := storage.NewBackupUploader(ctx, cfg)
		if err != nil {
			log.Printf("[Backup] Uploader init FAILED, keeping local backups only: err=%v", err)
		} else {
			uploader = u
		}
	}

	ticker := time.NewTicker(cfg.BackupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			backupOnce(ctx, cfg.BackupPath, db, uploader)
		}
	}
}

func backupOnce(ctx context.Context, path string, db *sqlx.DB, uploader *storage.BackupUploader) {
	if err := database.Backup(ctx, db, path); err != nil {
		log.Printf("[Backup] FAILED: path=%s err=%v", path, err)
		observability.Backups.WithLabelValues(observability.OutcomeError).Inc()
		return
	}

	if uploader != nil {
		key, err := uploader.Upload(ctx, path)
		if err != nil {
			log.Printf("[Backup] Upload FAILED: path=%s err=%v", path, err)
			observability.Backups.WithLabelValues(observability.OutcomeError).Inc()
			return
		}
		log.Printf("[Backup] Upload OK: key=%s", key)
	}
	observability.Backups.WithLabelValues(observability.OutcomeOK).Inc()
}
