package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expert_review_backend/pkg/logger"
	"expert_review_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Notifier 评审完成通知
type Notifier interface {
	SendReviewComplete(ctx context.Context, userID uint, submissionID string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID uint, submissionID string) error

func (f NotifierFunc) SendReviewComplete(ctx context.Context, userID uint, submissionID string) error {
	return f(ctx, userID, submissionID)
}

// ReviewCompleteEvent 发布到通知频道的消息体，由下游邮件/站内信服务消费
type ReviewCompleteEvent struct {
	UserID       uint      `json:"userId"`
	SubmissionID string    `json:"submissionId"`
	SentAt       time.Time `json:"sentAt"`
}

const notifiedKeyPrefix = "review:notified:"

// RedisNotifier publishes completion events. A SETNX marker per submission makes
// delivery at-most-once: a repeated call for the same submission is dropped, and a
// failed publish is not retried.
type RedisNotifier struct {
	rdb     redis.Cmdable
	channel string
	ttl     time.Duration
	now     func() time.Time
}

func NewRedisNotifier(rdb redis.Cmdable, channel string, dedupeTTL time.Duration) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, ttl: dedupeTTL, now: time.Now}
}

func (n *RedisNotifier) SendReviewComplete(ctx context.Context, userID uint, submissionID string) error {
	claimed, err := n.rdb.SetNX(ctx, notifiedKeyPrefix+submissionID, userID, n.ttl).Result()
	if err != nil {
		monitoring.NotificationsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("claim notification marker: %w", err)
	}
	if !claimed {
		monitoring.NotificationsSent.WithLabelValues("duplicate").Inc()
		logger.Log.Info("Review notification already sent",
			zap.String("submissionId", submissionID))
		return nil
	}

	payload, err := json.Marshal(ReviewCompleteEvent{
		UserID:       userID,
		SubmissionID: submissionID,
		SentAt:       n.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		monitoring.NotificationsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish review notification: %w", err)
	}
	monitoring.NotificationsSent.WithLabelValues("sent").Inc()
	return nil
}
