package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gitrelay"

// StartDeliverySpan starts a span covering one webhook delivery pipeline run.
func StartDeliverySpan(ctx context.Context, deliveryID, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "delivery",
		trace.WithAttributes(
			attribute.String("delivery.id", deliveryID),
			attribute.String("delivery.event", eventType),
		),
	)
}

// StartSendSpan starts a span for one chat destination send, retries included.
func StartSendSpan(ctx context.Context, chatID int64, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "send",
		trace.WithAttributes(
			attribute.Int64("send.chat_id", chatID),
			attribute.String("send.provider", provider),
		),
	)
}
