package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/quota"
)

// PeriodRoller seeds the next billing period. Implemented by
// quota.Repository.
type PeriodRoller interface {
	RollPeriod(ctx context.Context, fromKey, toKey string) (int64, error)
}

// QuotaRollHandler carries the next period's quota rows over a billing
// boundary. Scheduled monthly; running it again is harmless because the
// insert skips existing rows.
type QuotaRollHandler struct {
	roller  PeriodRoller
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewQuotaRollHandler builds the handler.
func NewQuotaRollHandler(roller PeriodRoller, logger *slog.Logger, metrics *observability.Metrics) *QuotaRollHandler {
	return &QuotaRollHandler{roller: roller, logger: logger, metrics: metrics}
}

// ProcessTask implements asynq.Handler.
func (h *QuotaRollHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload QuotaRollPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	now := time.Now().UTC()
	fromKey := payload.FromKey
	toKey := payload.ToKey
	if fromKey == "" {
		fromKey = quota.PeriodKeyFor(now.AddDate(0, -1, 0))
	}
	if toKey == "" {
		toKey = quota.PeriodKeyFor(now)
	}

	rolled, err := h.roller.RollPeriod(ctx, fromKey, toKey)
	h.metrics.ObserveJob(TaskTypeQuotaRollPeriod, err)
	if err != nil {
		h.logger.Error("quota roll period",
			slog.String("from", fromKey),
			slog.String("to", toKey),
			slog.Any("error", err))
		return err
	}
	h.logger.Info("quota roll period",
		slog.String("from", fromKey),
		slog.String("to", toKey),
		slog.Int64("tenants", rolled))
	return nil
}
