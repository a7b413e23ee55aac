package flow

import (
	"context"
	"fmt"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StartPayment opens a payment flow for serviceCode. The catalog is loaded
// first if it is still empty. A missing service or a tariff the cached
// balance cannot cover yields a flow that is already failed; no submission
// is ever made for it.
func (o *Orchestrator) StartPayment(ctx context.Context, serviceCode string) (domain.FlowSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.StartPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.service_code", serviceCode))

	if err := o.catalog.FetchServices(ctx); err != nil {
		f := o.open(domain.FlowPayment, 0, nil)
		f.fail(err, msgServicesFailed)
		return o.enter(f, domain.FlowFailed), err
	}

	svc, ok := o.catalog.Service(serviceCode)
	if !ok {
		err := &domain.ErrServiceNotFound{ServiceCode: serviceCode}
		f := o.open(domain.FlowPayment, 0, &domain.Service{ServiceCode: serviceCode})
		f.fail(err, msgServiceNotFound)
		return o.enter(f, domain.FlowFailed), err
	}

	if svc.ServiceTariff <= 0 {
		return domain.FlowSnapshot{}, &domain.ErrValidation{Field: "service_tariff", Message: msgInvalidService}
	}

	f := o.open(domain.FlowPayment, svc.ServiceTariff, &svc)

	if balance := o.profile.CachedBalance(); balance != nil && svc.ServiceTariff > *balance {
		err := &domain.ErrInsufficientBalance{Available: *balance, Required: svc.ServiceTariff}
		f.fail(err, msgInsufficientBalance)
		o.logger.Info("payment blocked by cached balance",
			zap.String("flow_id", f.id),
			zap.String("service_code", serviceCode),
			zap.Int64("balance", *balance),
			zap.Int64("tariff", svc.ServiceTariff),
		)
		return o.enter(f, domain.FlowFailed), err
	}

	f.prompt = fmt.Sprintf("Anda yakin ingin membayar %s sebesar %s?", svc.ServiceName, domain.FormatRupiah(svc.ServiceTariff))
	return o.enter(f, domain.FlowConfirming), nil
}

func (o *Orchestrator) submitPayment(ctx context.Context, f *flow) error {
	res, err := o.api.Pay(ctx, &domain.PaymentRequest{
		ServiceCode:   f.service.ServiceCode,
		ServiceAmount: f.amount,
	})
	if err != nil {
		o.logger.Warn("payment failed",
			zap.String("flow_id", f.id),
			zap.String("service_code", f.service.ServiceCode),
			zap.Error(err),
		)
		o.settle(f, func() { f.fail(err, msgPaymentFailed) })
		return err
	}

	o.logger.Info("payment succeeded",
		zap.String("flow_id", f.id),
		zap.String("service_code", f.service.ServiceCode),
		zap.Int64("amount", f.amount),
	)
	message := msgPaymentSucceeded
	if res != nil && res.Message != "" {
		message = res.Message
	}
	o.settle(f, func() { f.succeed(message) })
	o.afterSuccess(ctx, f)
	return nil
}
