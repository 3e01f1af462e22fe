package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
	"github.com/ivankudzin/botgate/internal/metrics"
)

type Dispatcher struct {
	messenger    platform.Messenger
	correlations *Correlations
	limiter      *rate.Limiter
	log          *zap.Logger
	now          func() time.Time
}

func NewDispatcher(messenger platform.Messenger, correlations *Correlations, perSecond float64, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Dispatcher{
		messenger:    messenger,
		correlations: correlations,
		limiter:      rate.NewLimiter(limit, 1),
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch sends the approval request to every moderator and returns receipts for the deliveries that succeeded.
// Failed deliveries are logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, c model.Case, moderators []model.Member) []model.Receipt {
	text := RequestText(c, d.now())
	receipts := make([]model.Receipt, 0, len(moderators))

	for _, moderator := range moderators {
		if err := d.limiter.Wait(ctx); err != nil {
			d.log.Warn("approval dispatch interrupted", zap.String("case_id", c.ID), zap.Error(err))
			break
		}

		sent, err := d.messenger.SendRequest(ctx, moderator.ID, text)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("request", "failed").Inc()
			d.log.Warn("approval request not delivered",
				zap.String("case_id", c.ID),
				zap.Int64("entity_id", c.EntityID),
				zap.Int64("moderator_id", moderator.ID),
				zap.Error(err),
			)
			continue
		}

		metrics.NotificationsSent.WithLabelValues("request", "sent").Inc()
		if d.correlations != nil {
			d.correlations.Put(sent, c.EntityID)
		}
		receipts = append(receipts, model.Receipt{
			ModeratorID: moderator.ID,
			ChatID:      sent.ChatID,
			MessageID:   sent.MessageID,
			DeliveredAt: d.now(),
		})
	}

	d.log.Info("approval requests dispatched",
		zap.String("case_id", c.ID),
		zap.Int64("entity_id", c.EntityID),
		zap.Int("moderators", len(moderators)),
		zap.Int("delivered", len(receipts)),
	)
	return receipts
}

// Alert sends an operator-fault notice to every moderator and returns the number delivered.
func (d *Dispatcher) Alert(ctx context.Context, moderators []model.Member, text string) int {
	delivered := 0
	for _, moderator := range moderators {
		if err := d.limiter.Wait(ctx); err != nil {
			break
		}
		if _, err := d.messenger.SendText(ctx, moderator.ID, text); err != nil {
			metrics.NotificationsSent.WithLabelValues("alert", "failed").Inc()
			d.log.Warn("alert not delivered", zap.Int64("moderator_id", moderator.ID), zap.Error(err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues("alert", "sent").Inc()
		delivered++
	}
	return delivered
}

func (d *Dispatcher) Confirm(ctx context.Context, moderator model.Principal, c model.Case) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := d.messenger.SendText(ctx, moderator.ID, ConfirmText(c)); err != nil {
		metrics.NotificationsSent.WithLabelValues("confirm", "failed").Inc()
		return err
	}
	metrics.NotificationsSent.WithLabelValues("confirm", "sent").Inc()
	return nil
}

// Settle drops the case's correlation entries and marks every delivered request with the outcome.
func (d *Dispatcher) Settle(ctx context.Context, c model.Case, status enums.CaseStatus, actor *model.Principal) {
	text := ResolvedText(c, status, actor)
	for _, receipt := range c.Receipts {
		msg := platform.SentMessage{ChatID: receipt.ChatID, MessageID: receipt.MessageID}
		if d.correlations != nil {
			d.correlations.Forget(msg)
		}
		if err := d.messenger.EditResolved(ctx, msg, text); err != nil {
			d.log.Debug("request message not updated",
				zap.String("case_id", c.ID),
				zap.Int64("chat_id", msg.ChatID),
				zap.Int("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
	}
}
