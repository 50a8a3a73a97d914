package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

// Executor wraps registry lookups with the outbound-call policy: a bounded
// timeout per attempt and exponential backoff retries on PROVIDER_UNAVAILABLE.
type Executor struct {
	registry *Registry
	logg     *logger.Logger
	timeout  time.Duration
	retries  int
	backoff  time.Duration
}

// NewExecutor builds the provider executor from checkout configuration.
func NewExecutor(registry *Registry, cfg config.CheckoutConfig, logg *logger.Logger) (*Executor, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.ProviderRetries
	if retries <= 0 {
		retries = 3
	}
	return &Executor{
		registry: registry,
		logg:     logg,
		timeout:  timeout,
		retries:  retries,
		backoff:  500 * time.Millisecond,
	}, nil
}

// CreateIntent opens a payment with the selected provider.
func (e *Executor) CreateIntent(ctx context.Context, kind enums.PaymentProvider, input CreateIntentInput) (*Intent, error) {
	provider, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	return callWithRetry(ctx, e, kind, "create_intent", func(ctx context.Context) (*Intent, error) {
		return provider.CreateIntent(ctx, input)
	})
}

// Confirm fetches the authoritative payment status from the provider.
func (e *Executor) Confirm(ctx context.Context, kind enums.PaymentProvider, handle string) (*Confirmation, error) {
	provider, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	return callWithRetry(ctx, e, kind, "confirm", func(ctx context.Context) (*Confirmation, error) {
		return provider.Confirm(ctx, handle)
	})
}

// Refund reverses a captured payment, fully or partially.
func (e *Executor) Refund(ctx context.Context, kind enums.PaymentProvider, providerReference string, amount *decimal.Decimal) (*RefundResult, error) {
	provider, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	return callWithRetry(ctx, e, kind, "refund", func(ctx context.Context) (*RefundResult, error) {
		return provider.Refund(ctx, providerReference, amount)
	})
}

func callWithRetry[T any](ctx context.Context, e *Executor, kind enums.PaymentProvider, op string, fn func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error
	for attempt := 1; attempt <= e.retries; attempt++ {
		result, err := callOnce(ctx, e.timeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !pkgerrors.HasCode(err, pkgerrors.CodeProviderUnavailable) {
			return nil, err
		}
		if attempt == e.retries {
			break
		}

		wait := e.backoff << (attempt - 1)
		e.logg.Warn(ctx, fmt.Sprintf("%s %s attempt %d failed, retrying in %s", kind, op, attempt, wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, ctx.Err(), "provider call cancelled")
		}
	}
	return nil, lastErr
}

// callOnce runs one provider call under the bounded timeout, mapping a
// deadline hit to PROVIDER_UNAVAILABLE.
func callOnce[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (*T, error)) (*T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fn(callCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "provider call timed out")
		}
		return nil, err
	}
	return result, nil
}
