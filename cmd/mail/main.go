package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.RabbitMQ.DSN == "" {
		logger.Error("mail worker 需要配置 RABBITMQ_DSN")
		os.Exit(1)
	}

	builder, err := mailer.NewBuilder(cfg.Email.SMTP.Username)
	if err != nil {
		logger.Error("无法加载邮件模板", slog.String("error", err.Error()))
		os.Exit(1)
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	dialTimeout := time.Duration(cfg.Email.SMTP.DialTimeout) * time.Second
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(dialTimeout),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		os.Exit(1)
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 和 api 端声明的参数保持一致：持久化、不自动删除、不独占
	q, err := ch.QueueDeclare(domain.MailQueue, true, false, false, false, nil)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 一次只取一条，发送失败重新入队时不会积压在本地
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置 prefetch", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &worker{
		logger:      logger,
		builder:     builder,
		sender:      client,
		sendTimeout: dialTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx, msgs)
	}()

	// 收到退出信号或者 RabbitMQ 关闭了消息通道
	logger.Info("等待消息...（按 CTRL+C 退出）")
	select {
	case <-ctx.Done():
	case <-done:
	}

	logger.Info("正在关闭 mail worker...")
	stop()
	<-done
	logger.Info("mail worker 已成功关闭")
}
