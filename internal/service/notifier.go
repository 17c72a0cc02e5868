package service

import (
	"context"
	"encoding/json"
	"questline_backend/internal/model"
	"questline_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	EventSubmissionReviewed = "submission.reviewed"
	EventAchievementAwarded = "achievement.awarded"

	notificationStream = "questline:events"
)

// Event 审核/发放事件，事务提交后投递，投递失败不回滚业务状态
type Event struct {
	Type            string                 `json:"type"`
	ParticipantKind model.ParticipantKind  `json:"participantKind"`
	ParticipantID   uint                   `json:"participantId"`
	Payload         map[string]interface{} `json:"payload"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// RedisNotifier 通过 redis stream 投递事件，消费端至少收到一次
type RedisNotifier struct {
	Redis *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{Redis: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) {
	if n.Redis == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("marshal notification event", zap.Error(err))
		return
	}

	err = n.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: notificationStream,
		Values: map[string]interface{}{"event": string(body)},
	}).Err()
	if err != nil {
		// 投递失败只记日志，业务状态已提交
		logger.Log.Warn("publish notification event",
			zap.String("type", event.Type),
			zap.Error(err))
	}
}
