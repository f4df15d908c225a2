// Package app 提供应用装配与生命周期管理
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arcadia-exchange/arcadia-options/internal/cache"
	"github.com/arcadia-exchange/arcadia-options/internal/config"
	"github.com/arcadia-exchange/arcadia-options/internal/handler"
	"github.com/arcadia-exchange/arcadia-options/internal/kafka"
	"github.com/arcadia-exchange/arcadia-options/internal/publisher"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	"github.com/arcadia-exchange/arcadia-options/internal/router"
	"github.com/arcadia-exchange/arcadia-options/internal/service"
	"github.com/arcadia-exchange/arcadia-options/internal/worker"
	"github.com/arcadia-exchange/arcadia-options/pkg/id"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// App 应用实例
type App struct {
	cfg *config.Config

	db          *gorm.DB
	redisClient redis.UniversalClient
	producer    *kafka.Producer

	server       *http.Server
	expiryWorker *worker.ExpirySettlementWorker
}

// New 装配应用
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	if err := a.initDB(); err != nil {
		return nil, err
	}
	if err := a.initRedis(); err != nil {
		return nil, err
	}
	if err := a.initKafka(); err != nil {
		return nil, err
	}
	if err := a.initServices(); err != nil {
		return nil, err
	}
	return a, nil
}

// initDB 初始化数据库连接并执行迁移
func (a *App) initDB() error {
	db, err := gorm.Open(postgres.Open(a.cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect database failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db failed: %w", err)
	}
	sqlDB.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(a.cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(a.cfg.Database.ConnMaxLifetime) * time.Second)

	if err := migrate(db); err != nil {
		return err
	}

	a.db = db
	return nil
}

// initRedis 初始化 Redis 连接
func (a *App) initRedis() error {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    a.cfg.Redis.Addrs,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis failed: %w", err)
	}

	a.redisClient = client
	return nil
}

// initKafka 初始化 Kafka 生产者
// 未启用时事件发布降级为空操作
func (a *App) initKafka() error {
	if !a.cfg.Kafka.Enabled {
		logger.Info("kafka 未启用, 事件发布降级为空操作")
		return nil
	}

	producer, err := kafka.NewProducer(a.cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	a.producer = producer
	return nil
}

// initServices 装配仓储、服务、接口与后台任务
func (a *App) initServices() error {
	// 仓储层
	tradeRepo := repository.NewTradeRepository(a.db)
	balanceRepo := repository.NewBalanceRepository(a.db)
	txRepo := repository.NewTransactionRepository(a.db)
	policyRepo := repository.NewPolicyRepository(a.db)

	// 行情与配置提供者
	priceCache := cache.NewPriceCache(a.redisClient, logger.L())
	symbols, err := newSymbolProvider(a.cfg.Symbols)
	if err != nil {
		return err
	}
	settings := newOptionSettingsProvider(a.cfg.Options)

	idGen, err := id.NewGenerator(a.cfg.Node.ID)
	if err != nil {
		return fmt.Errorf("create id generator failed: %w", err)
	}

	// 事件发布器 (producer 为 nil 时为空操作)
	var kafkaProducer publisher.KafkaProducer
	if a.producer != nil {
		kafkaProducer = a.producer
	}
	tradePub := publisher.NewTradePublisher(kafkaProducer)
	settlementPub := publisher.NewSettlementPublisher(kafkaProducer)
	balancePub := publisher.NewBalancePublisher(kafkaProducer)

	// 服务层
	tradeService := service.NewTradeService(tradeRepo, balanceRepo, priceCache, symbols, idGen, tradePub)
	settlementService := service.NewSettlementService(
		tradeRepo, balanceRepo, txRepo, policyRepo,
		priceCache, settings, settlementPub,
		service.SettlementParams{
			MaxRetries:              a.cfg.Settlement.MaxRetries,
			RetryBackoff:            a.cfg.Settlement.RetryBackoff(),
			ForcedMoveBps:           a.cfg.Settlement.ForcedMoveBps,
			DefaultProfitPercentage: decimal.NewFromFloat(a.cfg.Settlement.DefaultProfitPercentage),
		},
	)
	balanceService := service.NewBalanceService(balanceRepo, txRepo, symbols, balancePub)
	policyService := service.NewPolicyService(policyRepo)

	// HTTP 层
	engine := router.Setup(&router.Handlers{
		Trade:   handler.NewTradeHandler(tradeService, settlementService),
		Balance: handler.NewBalanceHandler(balanceService),
		Admin:   handler.NewAdminHandler(policyService),
	})

	a.server = &http.Server{
		Addr:         a.cfg.Service.Addr(),
		Handler:      engine,
		ReadTimeout:  time.Duration(a.cfg.Service.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Service.WriteTimeoutSec) * time.Second,
	}

	// 到期结算任务
	if a.cfg.Worker.Expiry.Enabled {
		a.expiryWorker = worker.NewExpirySettlementWorker(tradeRepo, settlementService, worker.ExpiryWorkerOptions{
			CheckInterval: time.Duration(a.cfg.Worker.Expiry.CheckIntervalSec) * time.Second,
			BatchSize:     a.cfg.Worker.Expiry.BatchSize,
		})
	}

	return nil
}

// Run 启动应用并阻塞至收到退出信号
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.expiryWorker != nil {
		a.expiryWorker.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http 服务启动", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		logger.Info("收到退出信号", "signal", sig.String())
	}

	return a.shutdown(cancel)
}

// shutdown 优雅停机
// 顺序: 停止接收请求 → 停止后台任务 → 关闭消息与存储连接
func (a *App) shutdown(cancel context.CancelFunc) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http 服务关闭失败", "error", err)
	}

	cancel()
	if a.expiryWorker != nil {
		a.expiryWorker.Stop()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Error("kafka 生产者关闭失败", "error", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Error("redis 连接关闭失败", "error", err)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("数据库连接关闭失败", "error", err)
			}
		}
	}

	logger.Info("服务已退出")
	return nil
}
