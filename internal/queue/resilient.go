package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// ErrPublishThrottled is returned when the publish rate limit is exhausted
var ErrPublishThrottled = errors.New("event publish rate limit exceeded")

// ResilientPublisher wraps a Publisher with retry and a circuit breaker
type ResilientPublisher struct {
	next           Publisher
	circuitBreaker circuitbreaker.CircuitBreaker[struct{}]
	retrier        retry.Retry[struct{}]
	rateLimit      ratelimit.RateLimiter
}

// ResilientConfig holds configuration for the resilient publisher
type ResilientConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	FailureThreshold int
	OpenTimeout      time.Duration

	// RatePerSecond caps publishes per second; zero disables the limit
	RatePerSecond int
}

// DefaultResilientConfig returns defaults suited to a broker on the local network
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:      3,
		InitialDelay:     200 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		RatePerSecond:    50,
	}
}

// NewResilientPublisher wraps next with the configured resilience patterns
func NewResilientPublisher(next Publisher, cfg ResilientConfig) *ResilientPublisher {
	p := &ResilientPublisher{
		next: next,
		circuitBreaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= cfg.FailureThreshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				slog.Warn("event publisher circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		}),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}

	if cfg.RatePerSecond > 0 {
		p.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 3,
			Interval: time.Second,
		})
	}

	return p
}

// Publish retries transient failures inside the circuit breaker
func (p *ResilientPublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	if p.rateLimit != nil && !p.rateLimit.Allow(ctx, "publish") {
		return ErrPublishThrottled
	}

	_, err := p.circuitBreaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.next.Publish(ctx, event)
		})
	})
	return err
}

// isRetryable treats cancellation and non-recoverable AMQP errors as final
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover || amqpErr.Code == amqp.ChannelError || amqpErr.Code == amqp.ConnectionForced
	}
	return true
}

var _ Publisher = (*ResilientPublisher)(nil)
