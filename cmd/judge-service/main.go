package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sushanth-77/oj-project/internal/common/cache"
	commonmw "github.com/Sushanth-77/oj-project/internal/common/http/middleware"
	"github.com/Sushanth-77/oj-project/internal/common/storage"
	"github.com/Sushanth-77/oj-project/internal/judge/controller"
	"github.com/Sushanth-77/oj-project/internal/judge/corpus"
	"github.com/Sushanth-77/oj-project/internal/judge/repository"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/runner"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/toolchain"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/workspace"
	"github.com/Sushanth-77/oj-project/internal/judge/service"
	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge-service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	corpusSource, err := buildCorpusSource(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init corpus source failed", zap.Error(err))
		return
	}

	wsManager, err := workspace.NewManager(appCfg.Judge.WorkRoot)
	if err != nil {
		logger.Error(context.Background(), "init workspace manager failed", zap.Error(err))
		return
	}

	resolver := toolchain.NewResolver(appCfg.Judge.ProbeTimeout)
	jobRunner, err := runner.New(appCfg.Runner, resolver, wsManager)
	if err != nil {
		logger.Error(context.Background(), "init runner failed", zap.Error(err))
		return
	}

	evaluator, err := service.NewEvaluator(jobRunner, wsManager, corpusSource, appCfg.Judge.HiddenTimeFactor)
	if err != nil {
		logger.Error(context.Background(), "init evaluator failed", zap.Error(err))
		return
	}

	var publisher repository.VerdictEventPublisher
	if appCfg.Kafka.Enabled {
		kafkaPublisher, err := repository.NewKafkaVerdictEventPublisher(appCfg.Kafka.Brokers, appCfg.Kafka.FinalTopic)
		if err != nil {
			logger.Error(context.Background(), "init kafka publisher failed", zap.Error(err))
			return
		}
		defer func() {
			_ = kafkaPublisher.Close()
		}()
		publisher = kafkaPublisher
	}

	statusRepo := repository.NewStatusRepository(redisCache, appCfg.Judge.StatusTTL)
	dispatcher := service.NewDispatcher(appCfg.Dispatcher, evaluator, statusRepo, publisher)
	defer dispatcher.Close()

	httpServer := buildHTTPServer(appCfg.Server, dispatcher, jobRunner)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildCorpusSource(cfg *AppConfig) (corpus.Source, error) {
	if cfg.Corpus.Mode == "dir" {
		return corpus.NewDirSource(cfg.Corpus.Dir)
	}
	objStorage, err := storage.NewMinIOStorage(&cfg.MinIO)
	if err != nil {
		return nil, err
	}
	return corpus.NewObjectSource(objStorage, cfg.Corpus.Bucket)
}

func buildHTTPServer(cfg ServerConfig, dispatcher *service.Dispatcher, jobRunner runner.Runner) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	api := router.Group("/api/v1")
	judgeController := controller.NewJudgeController(dispatcher, jobRunner)
	judgeController.RegisterRoutes(api)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
