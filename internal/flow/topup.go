package flow

import (
	"context"
	"fmt"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ValidateTopUp checks amount against the configured bounds.
func (o *Orchestrator) ValidateTopUp(amount int64) error {
	if amount < o.limits.MinTopUp {
		return &domain.ErrValidation{
			Field:   "amount",
			Message: "Minimal Top Up " + domain.FormatRupiah(o.limits.MinTopUp),
		}
	}
	if amount > o.limits.MaxTopUp {
		return &domain.ErrValidation{
			Field:   "amount",
			Message: "Maksimal Top Up " + domain.FormatRupiah(o.limits.MaxTopUp),
		}
	}
	return nil
}

// StartTopUp opens a top-up flow awaiting confirmation. An out-of-range
// amount opens nothing.
func (o *Orchestrator) StartTopUp(ctx context.Context, amount int64) (domain.FlowSnapshot, error) {
	_, span := tracer.Start(ctx, "Orchestrator.StartTopUp")
	defer span.End()
	span.SetAttributes(attribute.Int64("topup.amount", amount))

	if err := o.ValidateTopUp(amount); err != nil {
		return domain.FlowSnapshot{}, err
	}

	f := o.open(domain.FlowTopUp, amount, nil)
	f.prompt = fmt.Sprintf("Anda yakin untuk Top Up sebesar %s ?", domain.FormatRupiah(amount))
	return o.enter(f, domain.FlowConfirming), nil
}

func (o *Orchestrator) submitTopUp(ctx context.Context, f *flow) error {
	res, err := o.api.TopUp(ctx, &domain.TopUpRequest{TopUpAmount: f.amount})
	if err != nil {
		o.logger.Warn("top up failed",
			zap.String("flow_id", f.id),
			zap.Int64("amount", f.amount),
			zap.Error(err),
		)
		o.settle(f, func() { f.fail(err, msgTopUpFailed) })
		return err
	}

	o.logger.Info("top up succeeded", zap.String("flow_id", f.id), zap.Int64("amount", f.amount))
	message := msgTopUpSucceeded
	if res != nil && res.Message != "" {
		message = res.Message
	}
	o.settle(f, func() { f.succeed(message) })
	o.afterSuccess(ctx, f)
	return nil
}
