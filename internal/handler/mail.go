package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// MailPublisher 将邮件投递到邮件队列，由 mail worker 负责实际发送
type MailPublisher interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

type AMQPMailPublisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewAMQPMailPublisher(ch *amqp.Channel, timeout time.Duration) *AMQPMailPublisher {
	return &AMQPMailPublisher{ch: ch, timeout: timeout}
}

func (p *AMQPMailPublisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	// 序列化邮件
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		domain.MailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Type:         msg.Type,
			Body:         body,
		},
	)
}

// LogMailPublisher 在没有配置 rabbitmq 时使用，只把邮件写入日志
type LogMailPublisher struct{}

func (LogMailPublisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	slog.Info("邮件未发送", "type", msg.Type, "to", msg.To)
	return nil
}

// OTPStore 保存一次性验证码
type OTPStore interface {
	SetOTP(ctx context.Context, key, otp string, expiration time.Duration) error
	// GetOTP 在验证码不存在或已过期时返回空字符串
	GetOTP(ctx context.Context, key string) (string, error)
	DeleteOTP(ctx context.Context, key string) error
}

type RedisOTPStore struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisOTPStore(rdb *redis.Client, timeout time.Duration) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb, timeout: timeout}
}

func (s *RedisOTPStore) SetOTP(ctx context.Context, key, otp string, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.Set(ctx, key, otp, expiration).Err()
}

func (s *RedisOTPStore) GetOTP(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	otp, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return otp, err
}

func (s *RedisOTPStore) DeleteOTP(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.Del(ctx, key).Err()
}

func resetPasswordOTPKey(username string) string {
	return fmt.Sprintf("otp_%s_reset_password", username)
}

// notifyUser 在写入成功之后发送通知邮件，失败时只记录日志
func (h *Handler) notifyUser(r *http.Request, userID int64, mailType string, data func(user *domain.User) any) {
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		slog.Warn("无法获取通知邮件的收件人", "user_id", userID, "type", mailType, "error", err)
		return
	}
	if user.Email == "" {
		return
	}

	msg := domain.MailMessage{
		Type: mailType,
		To:   user.Email,
		Data: data(user),
	}
	if err := h.mailer.PublishMail(r.Context(), msg); err != nil {
		slog.Error("无法发送通知邮件", "user_id", userID, "type", mailType, "error", err)
	}
}
