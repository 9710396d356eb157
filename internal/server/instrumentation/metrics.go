// Package instrumentation records auth outcomes as OpenTelemetry counters.
package instrumentation

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dmitrijs2005/gophauth"

// Outcome attribute values.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalid         = "invalid"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeConflict        = "conflict"
	OutcomeRateLimited     = "rate_limited"
	OutcomeError           = "error"
)

type Metrics struct {
	authEvents   metric.Int64Counter
	sweptRecords metric.Int64Counter
	rateLimited  metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.authEvents, err = meter.Int64Counter(
		"gophauth.auth.events",
		metric.WithDescription("Auth operations by event and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth.events counter: %w", err)
	}

	m.sweptRecords, err = meter.Int64Counter(
		"gophauth.refresh_tokens.swept",
		metric.WithDescription("Expired refresh token records removed by the sweeper"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh_tokens.swept counter: %w", err)
	}

	m.rateLimited, err = meter.Int64Counter(
		"gophauth.ratelimit.rejected",
		metric.WithDescription("Requests rejected by a rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.rejected counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordAuthEvent(ctx context.Context, event string, err error) {
	m.authEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", Outcome(err)),
	))
}

func (m *Metrics) RecordSwept(ctx context.Context, n int64) {
	if n > 0 {
		m.sweptRecords.Add(ctx, n)
	}
}

func (m *Metrics) RecordRateLimited(ctx context.Context, scope string) {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// Outcome classifies err into one of the Outcome* values.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, common.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, common.ErrUnauthenticated):
		return OutcomeUnauthenticated
	case errors.Is(err, common.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
