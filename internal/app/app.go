// Package app はサブコマンドの解析と各起動モードの依存関係ワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/config"
	"github.com/hitoshi/contentpulse/internal/content"
	"github.com/hitoshi/contentpulse/internal/database"
	"github.com/hitoshi/contentpulse/internal/handler"
	"github.com/hitoshi/contentpulse/internal/logger"
	"github.com/hitoshi/contentpulse/internal/metrics"
	"github.com/hitoshi/contentpulse/internal/metricstore"
	"github.com/hitoshi/contentpulse/internal/middleware"
	"github.com/hitoshi/contentpulse/internal/platform"
	"github.com/hitoshi/contentpulse/internal/realtime"
	"github.com/hitoshi/contentpulse/internal/repository"
	"github.com/hitoshi/contentpulse/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// pipeline はメトリクス同期・配信パイプラインのコンポーネント一式。
// serveとworkerの両モードで同じワイヤリングを共有する。
type pipeline struct {
	contentRepo  repository.ContentRepository
	snapshots    metricstore.SnapshotStore
	registry     *prometheus.Registry
	collector    *metrics.Collector
	scheduler    *syncer.Scheduler
	analyticsSvc *analytics.Service
	forecaster   *analytics.Forecaster
	broadcaster  *realtime.Broadcaster
	notifier     *realtime.Notifier
}

// buildPipeline はリポジトリからパイプラインの全コンポーネントをワイヤリングする。
func buildPipeline(cfg *config.Config, db *sql.DB, snapshots metricstore.SnapshotStore, log *slog.Logger) *pipeline {
	contentRepo := repository.NewPostgresContentRepo(db)
	analyticsRepo := repository.NewPostgresAnalyticsRepo(db)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	writer := syncer.NewWriter(contentRepo, snapshots, collector, log)
	router := platform.NewRouter(platform.NewDefaultRegistry(), writer, log)
	scheduler := syncer.NewScheduler(
		contentRepo, router, collector, log,
		cfg.SyncMaxConcurrent, cfg.SyncBatchSize, cfg.SyncItemTimeout,
	)

	analyticsSvc := analytics.NewService(
		contentRepo, analyticsRepo, log,
		cfg.ViralDefaultThreshold, cfg.AttentionStaleDays, cfg.GrowthDefaultDays,
	)
	forecaster := analytics.NewForecaster(contentRepo, snapshots)

	broadcaster := realtime.NewBroadcaster(log)
	notifier := realtime.NewNotifier(
		contentRepo, analyticsSvc, broadcaster, realtime.NewStateStore(), collector, log,
	)

	return &pipeline{
		contentRepo:  contentRepo,
		snapshots:    snapshots,
		registry:     reg,
		collector:    collector,
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		forecaster:   forecaster,
		broadcaster:  broadcaster,
		notifier:     notifier,
	}
}

// openStores はリレーショナルストアと時系列ストアの接続を開く。
func openStores(cfg *config.Config) (*sql.DB, *metricstore.BadgerSnapshotStore, func(), error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	badgerDB, err := metricstore.OpenBadger(cfg.MetricsDBPath)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to open metrics store: %w", err)
	}

	cleanup := func() {
		badgerDB.Close()
		db.Close()
	}
	return db, metricstore.NewBadgerSnapshotStore(badgerDB), cleanup, nil
}

// runServe はAPIサーバーモードで起動する。
// 両ストアの接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, snapshots, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	slog.Info("storage connections established")

	log := slog.Default()
	p := buildPipeline(cfg, db, snapshots, log)
	defer p.broadcaster.Close()

	// コンテンツサービス（URL取り込み時の初回同期と削除時の配信状態破棄を接続）
	contentService := content.NewService(
		p.contentRepo, p.snapshots, content.NewDescriptionSanitizer(),
		p.scheduler, p.notifier, log,
	)

	// レート制限（RATE_LIMIT_GENERALはreq/min単位なのでreq/secに変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.Rate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.Burst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg, log)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            log,
		Collector:         p.collector,

		ContentService: contentService,
		SnapshotReader: p.snapshots,
		ManualSync:     p.scheduler,

		AnalyticsService: p.analyticsSvc,
		ForecastService:  p.forecaster,

		RealtimeTrigger:  p.notifier,
		StreamSubscriber: p.broadcaster,
	})

	// /metrics はAPIルーターの外に配置する
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(p.registry))
	mux.Handle("/", router)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 同期スケジューラと2本の変化検知ループを起動し、/metricsリスナーを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, snapshots, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	slog.Info("storage connections established (worker)")

	log := slog.Default()
	p := buildPipeline(cfg, db, snapshots, log)
	defer p.broadcaster.Close()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("sync_interval", cfg.SyncInterval),
		slog.Duration("platform_notify_interval", cfg.PlatformNotifyInterval),
		slog.Duration("content_notify_interval", cfg.ContentNotifyInterval),
		slog.Int("max_concurrent", cfg.SyncMaxConcurrent),
	)

	// Prometheusメトリクスリスナーをバックグラウンドで起動
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metrics.SetupMetricsRoute(p.registry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics listener error", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	// 変化検知ループをバックグラウンドで起動
	go p.notifier.StartPlatformLoop(ctx, cfg.PlatformNotifyInterval)
	go p.notifier.StartContentLoop(ctx, cfg.ContentNotifyInterval)

	// 同期スケジューラをメインgoroutineで実行（ブロッキング）
	p.scheduler.Start(ctx, cfg.SyncInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
