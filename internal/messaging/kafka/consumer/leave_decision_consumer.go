package consumer

import (
	"context"
	"encoding/json"

	"go-leaveflow/internal/events"
	"go-leaveflow/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeLeaveDecisions turns decision events into notification feed
// entries. Malformed messages are committed and skipped; transient
// failures leave the offset uncommitted so the message is redelivered.
func ConsumeLeaveDecisions(
	ctx context.Context,
	reader *kafkago.Reader,
	notificationService notification.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_decision")
	log.Info("leave decision consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave decision consumer stopped")
				return
			}
			log.Error("fetch leave decision message failed", zap.Error(err))
			continue
		}

		var event events.LeaveDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave decision event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notificationService.RecordLeaveDecision(ctx, event); err != nil {
			log.Error("record leave decision notification failed",
				zap.String("leave_id", event.LeaveID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave decision message failed", zap.Error(err))
			continue
		}

		log.Info("leave decision notification delivered",
			zap.String("leave_id", event.LeaveID),
			zap.String("status", event.Status),
		)
	}
}
