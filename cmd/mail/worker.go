package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type worker struct {
	logger      *slog.Logger
	builder     *mailer.Builder
	sender      sender
	sendTimeout time.Duration
}

// run 持续消费消息，直到 ctx 被取消或者消息通道被关闭
func (w *worker) run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				w.logger.Warn("消息通道已关闭")
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle 处理单条消息：无法解析或无法构建的消息直接丢弃，发送失败的消息重新入队
func (w *worker) handle(ctx context.Context, d amqp.Delivery) {
	w.logger.Info("收到消息", slog.String("id", d.MessageId), slog.String("type", d.Type))

	msg, err := mailer.Decode(d.Body)
	if err != nil {
		w.logger.Error("无法解析邮件信息", slog.String("id", d.MessageId), slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}

	m, err := w.builder.Build(msg)
	if err != nil {
		w.logger.Error("无法构建邮件", slog.String("type", msg.Type), slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.sender.DialAndSendWithContext(sendCtx, m); err != nil {
		w.logger.Error("邮件发送失败", slog.String("type", msg.Type), slog.String("error", err.Error()))
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}
