package application

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/infrastructure/udp"
	"wiz-fleet/internal/observability/metrics"
)

// DefaultDelay is the pause between two fixtures in a sequential fleet run.
const DefaultDelay = 100 * time.Millisecond

// Exchanger performs one request/reply exchange with one fixture.
type Exchanger interface {
	Send(ctx context.Context, address string, cmd lights.Command) (*lights.Reply, error)
}

// CommandFactory builds the command for the next fixture.
type CommandFactory func() lights.Command

// Fleet applies one command to every address and aggregates the outcomes.
type Fleet struct {
	client      Exchanger
	delay       time.Duration
	concurrency int
	logger      *log.Logger
}

// FleetOption configures a fleet.
type FleetOption func(*Fleet)

// WithDelay sets the pause between fixtures. Zero disables it.
func WithDelay(delay time.Duration) FleetOption {
	return func(f *Fleet) {
		if delay >= 0 {
			f.delay = delay
		}
	}
}

// WithConcurrency sets how many fixtures are contacted at once. With more
// than one worker the delay becomes the minimum interval between datagrams.
func WithConcurrency(n int) FleetOption {
	return func(f *Fleet) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) FleetOption {
	return func(f *Fleet) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFleet constructs a fleet orchestrator.
func NewFleet(client Exchanger, opts ...FleetOption) (*Fleet, error) {
	if client == nil {
		return nil, errors.New("fleet: nil client")
	}
	f := &Fleet{
		client:      client,
		delay:       DefaultDelay,
		concurrency: 1,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Apply sends the command built by factory to every address and returns one
// outcome per address, in order. It never fails: per-device errors are
// recorded in the outcomes. Addresses not started before ctx ends are
// recorded as canceled without being contacted.
func (f *Fleet) Apply(ctx context.Context, addresses []string, factory CommandFactory) lights.Result {
	outcomes := make([]lights.Outcome, len(addresses))
	if f.concurrency > 1 && len(addresses) > 1 {
		f.applyConcurrent(ctx, addresses, factory, outcomes)
	} else {
		f.applySequential(ctx, addresses, factory, outcomes)
	}
	return lights.NewResult(outcomes)
}

func (f *Fleet) applySequential(ctx context.Context, addresses []string, factory CommandFactory, outcomes []lights.Outcome) {
	for i, addr := range addresses {
		if i > 0 && f.delay > 0 {
			if err := sleepContext(ctx, f.delay); err != nil {
				markCanceled(addresses[i:], outcomes[i:])
				return
			}
		}
		if ctx.Err() != nil {
			markCanceled(addresses[i:], outcomes[i:])
			return
		}
		outcomes[i] = f.exchange(ctx, addr, factory())
	}
}

func (f *Fleet) applyConcurrent(ctx context.Context, addresses []string, factory CommandFactory, outcomes []lights.Outcome) {
	var limiter *rate.Limiter
	if f.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(f.delay), 1)
	}
	var group errgroup.Group
	group.SetLimit(f.concurrency)
	for i, addr := range addresses {
		outcomes[i] = canceledOutcome(addr)
		cmd := factory()
		group.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = f.exchange(ctx, addr, cmd)
			return nil
		})
	}
	_ = group.Wait()
}

func (f *Fleet) exchange(ctx context.Context, addr string, cmd lights.Command) lights.Outcome {
	start := time.Now()
	reply, err := f.client.Send(ctx, addr, cmd)
	outcome := lights.Outcome{Address: addr}

	var transportErr *udp.TransportError
	switch {
	case err == nil:
		outcome.Reached = true
		outcome.Data = reply.Result
		outcome.Succeeded = cmd.Succeeded(reply)
		if reply.Error != nil {
			outcome.Error = "device: " + reply.Error.Message
			f.logger.Printf("fleet: %s rejected %s: %d %s", addr, cmd.Method(), reply.Error.Code, reply.Error.Message)
		}
	case errors.Is(err, udp.ErrTimeout):
		outcome.Error = lights.OutcomeTimeout
		f.logger.Printf("fleet: %s timed out on %s", addr, cmd.Method())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome.Error = lights.OutcomeCanceled
		f.logger.Printf("fleet: %s abandoned on %s: %v", addr, cmd.Method(), err)
	case errors.As(err, &transportErr):
		outcome.Error = "transport: " + transportErr.Op
		f.logger.Printf("fleet: %s transport error on %s: %v", addr, cmd.Method(), err)
	default:
		outcome.Error = "transport: " + err.Error()
		f.logger.Printf("fleet: %s error on %s: %v", addr, cmd.Method(), err)
	}

	metrics.ObserveDeviceExchange(exchangeResult(outcome), time.Since(start))
	return outcome
}

func exchangeResult(o lights.Outcome) string {
	switch {
	case o.Succeeded:
		return metrics.ExchangeSuccess
	case o.Reached:
		return metrics.ExchangeFailed
	case o.Error == lights.OutcomeTimeout:
		return metrics.ExchangeTimeout
	case o.Error == lights.OutcomeCanceled:
		return metrics.ExchangeCanceled
	default:
		return metrics.ExchangeError
	}
}

func canceledOutcome(addr string) lights.Outcome {
	return lights.Outcome{Address: addr, Error: lights.OutcomeCanceled}
}

func markCanceled(addresses []string, outcomes []lights.Outcome) {
	for i, addr := range addresses {
		outcomes[i] = canceledOutcome(addr)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
