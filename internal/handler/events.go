package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

// publishPositionEvent 把生命周期事件发到消息队列，
// 事件投递和缓存失效都是尽力而为：失败只记日志，不影响请求本身
func (h *Handler) publishPositionEvent(eventType string, position *domain.JobPosition, data any) {
	event := domain.PositionEvent{
		Type:       eventType,
		PositionID: position.ID,
		CompanyID:  position.CompanyID,
		Data:       data,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		slog.Error("序列化岗位事件失败", "type", eventType, "positionID", position.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.eventChannel.PublishWithContext(
		ctx,
		"",
		"position_events",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        eventData,
		},
	); err != nil {
		slog.Error("发布岗位事件失败", "type", eventType, "positionID", position.ID, "error", err)
	}
}

func publishedPositionsCacheKey(companyID int64) string {
	return fmt.Sprintf("published_positions_%d", companyID)
}

func (h *Handler) invalidatePublishedPositionsCache(companyID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Del(ctx, publishedPositionsCacheKey(companyID)).Err(); err != nil {
		slog.Error("清除已发布岗位缓存失败", "companyID", companyID, "error", err)
	}
}
