package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/handler"
	"github.com/SimbaKVis/shift-manager/backend/internal/memstore"
	"github.com/SimbaKVis/shift-manager/backend/internal/repository"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", "error", err)
		return
	}

	/**********************************************
	 * 创建实体存储
	 **********************************************/
	var store service.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("正在使用内存存储，重启后数据会丢失")
		store = memstore.New()
	default:
		dbpool, err := repository.OpenDB(cfg)
		if err != nil {
			logger.Error("无法连接到数据库", "error", err)
			return
		}
		defer dbpool.Close()

		store = repository.NewRepository(cfg, dbpool)
	}

	svc := service.New(store, service.Options{
		Logger:                  logger,
		Location:                loc,
		MaxRecurringOccurrences: cfg.Scheduling.MaxRecurringOccurrences,
	})

	/**********************************************
	 * 确保存在初始管理员
	 **********************************************/
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := svc.EnsureUser(ctx, service.CreateUserInput{
		Username: cfg.InitialAdmin.Username,
		FullName: cfg.InitialAdmin.FullName,
		Email:    cfg.InitialAdmin.Email,
		Role:     domain.RoleAdmin,
		Password: cfg.InitialAdmin.Password,
	}); err != nil {
		logger.Error("无法创建初始管理员", "error", err)
		return
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	var mailer handler.MailPublisher
	if cfg.RabbitMQ.DSN == "" {
		logger.Warn("未配置 RABBITMQ_DSN，邮件只会写入日志")
		mailer = handler.LogMailPublisher{}
	} else {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		// 建立通道
		ch, err := conn.Channel()
		if err != nil {
			logger.Error("无法建立通道", "error", err)
			return
		}
		defer ch.Close()

		// 声明队列
		_, err = ch.QueueDeclare(
			domain.MailQueue,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Error("无法声明队列", "error", err)
			return
		}

		mailer = handler.NewAMQPMailPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	otpStore := handler.NewRedisOTPStore(rdb, time.Duration(cfg.Redis.OperationExpiration)*time.Second)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, svc, mailer, otpStore)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port, "store", cfg.StoreDriver, "swap_approver", cfg.SwapApprover)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
