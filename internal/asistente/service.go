// Package asistente exposes the metered assistant chat. Every completed
// message spends a fixed amount against the tenant's monthly budget.
package asistente

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andes-erp/andes-erp/internal/quota"
	"github.com/andes-erp/andes-erp/internal/shared"
)

// Responder produces the assistant reply for a prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// UsageRecorder persists quota spend. Implemented by quota.Recorder.
type UsageRecorder interface {
	Record(ctx context.Context, tenantID int64, amount decimal.Decimal, periodKey string) error
}

// EchoResponder is the development responder, used until a model-backed
// implementation is wired in.
type EchoResponder struct{}

// Respond returns the prompt back to the caller.
func (EchoResponder) Respond(_ context.Context, prompt string) (string, error) {
	return "Recibido: " + prompt, nil
}

// Service runs assistant conversations and accounts their cost.
type Service struct {
	responder Responder
	usage     UsageRecorder
	audit     *shared.AuditLogger
	cost      decimal.Decimal
}

// NewService builds a Service instance. usage may be nil when metering is
// disabled; cost is the spend per completed message.
func NewService(responder Responder, usage UsageRecorder, audit *shared.AuditLogger, cost decimal.Decimal) *Service {
	return &Service{responder: responder, usage: usage, audit: audit, cost: cost}
}

// Chat produces a reply and, for tenant members, records the spend. Usage
// is recorded only after the responder succeeded; a failed conversation
// costs nothing. A failed usage write fails the request rather than hand
// out unaccounted spend.
func (s *Service) Chat(ctx context.Context, actorID int64, tenantID *int64, prompt string) (string, error) {
	reply, err := s.responder.Respond(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s.usage != nil && tenantID != nil {
		if err := s.usage.Record(ctx, *tenantID, s.cost, quota.PeriodKeyFor(time.Now())); err != nil {
			return "", err
		}
	}
	if s.audit != nil {
		meta := map[string]any{"cost": s.cost.String()}
		if tenantID != nil {
			meta["company_id"] = *tenantID
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "asistente:chat",
			Entity:   "conversacion",
			EntityID: strconv.FormatInt(actorID, 10),
			Meta:     meta,
		})
	}
	return reply, nil
}
