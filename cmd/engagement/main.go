package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightsmile/engagebot-go/internal/client"
	"github.com/brightsmile/engagebot-go/internal/config"
	"github.com/brightsmile/engagebot-go/internal/handler"
	"github.com/brightsmile/engagebot-go/internal/metrics"
	"github.com/brightsmile/engagebot-go/internal/middleware"
	"github.com/brightsmile/engagebot-go/internal/notify"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/brightsmile/engagebot-go/internal/tools"
	"github.com/brightsmile/engagebot-go/internal/tracing"
	"github.com/brightsmile/engagebot-go/internal/workers"
	"github.com/brightsmile/engagebot-go/pkg/logger"
	redispkg "github.com/brightsmile/engagebot-go/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/engagement.yaml", "配置文件路径")
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("engagement 服务启动中...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 链路追踪
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(cfg.Server.Name, os.Stdout, zapLogger)
		if err != nil {
			zapLogger.Fatal("初始化链路追踪失败", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 会话存储
	var store service.SessionStore
	switch cfg.Store.Type {
	case "redis":
		rdb, err := redispkg.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("连接 Redis 失败", zap.Error(err))
		}
		defer rdb.Close()
		store = service.NewRedisStore(rdb, cfg.Store.TTL, zapLogger)
	default:
		store = service.NewMemoryStore()
	}
	zapLogger.Info("会话存储已就绪", zap.String("type", cfg.Store.Type))

	// 通知信号
	var publisher interface {
		service.SignalPublisher
		Close() error
	}
	if cfg.Kafka.Enabled {
		publisher = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
	} else {
		publisher = notify.NewLogPublisher(zapLogger)
	}
	defer publisher.Close()

	// 大模型
	var (
		classifier service.Classifier
		generator  service.Generator
	)
	if cfg.DashScope.APIKey != "" {
		llm := client.NewDashScopeClient(cfg.DashScope.APIKey, cfg.DashScope.Model, cfg.DashScope.BaseURL, cfg.DashScope.Timeout, zapLogger)
		generator = llm
		classifier = service.NewLLMClassifier(llm, zapLogger)
	} else {
		zapLogger.Warn("未配置 DashScope API Key，使用关键词识别和固定回复")
	}

	// 初始化服务
	pool := workers.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, zapLogger)
	defer pool.Stop()

	engine := service.NewEngagementService(classifier, generator, publisher, cfg.Engagement, m, zapLogger)
	conversations := service.NewConversationService(engine, store, pool, zapLogger)
	connections := service.NewConnectionService(60*time.Second, 3, zapLogger)
	go connections.Run(ctx, 30*time.Second)

	toolRegistry := tools.NewRegistry(zapLogger)
	if err := tools.RegisterBookingTools(toolRegistry, zapLogger); err != nil {
		zapLogger.Fatal("注册预约工具失败", zap.Error(err))
	}

	// 初始化处理器与路由
	r := gin.Default()
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(func(c *gin.Context) {
		c.Set("service_name", cfg.Server.Name)
		c.Next()
	})

	handler.NewAPIHandler(conversations, engine, connections, zapLogger).Register(r)
	handler.NewToolsHandler(toolRegistry, zapLogger).Register(r)
	r.GET("/ws", handler.NewWebSocketHandler(conversations, connections, cfg.Server.CORSOrigins, zapLogger).HandleWebSocket)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		zapLogger.Info("engagement 服务启动成功", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("收到退出信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("服务关闭失败", zap.Error(err))
	}
}
