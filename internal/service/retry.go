package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorClass decides which backoff schedule a failed external call gets
type ErrorClass int

const (
	// ClassTransient covers quota, unavailability and deadline failures
	ClassTransient ErrorClass = iota
	// ClassOther covers parse/format and any unrecognized failure
	ClassOther
)

func (c ErrorClass) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "other"
}

// ClassifyError maps an external call failure onto a retry class
func ClassifyError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded:
			return ClassTransient
		}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return ClassTransient
		}
	}
	return ClassOther
}

// RetryPolicy is the bounded retry schedule for router and personalization calls
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Jitter       time.Duration
	OtherDelay   time.Duration
	OtherJitter  time.Duration

	// AttemptTimeout bounds each call; zero leaves only the caller's deadline
	AttemptTimeout time.Duration

	Classify func(error) ErrorClass
	Sleep    func(ctx context.Context, d time.Duration) error
	Rand     func() float64
	Logger   *zap.Logger
}

// DefaultRetryPolicy returns four attempts with 2s doubling backoff capped at
// 16s plus up to 1s jitter, and 1-1.5s pauses after parse failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 2 * time.Second,
		MaxDelay:     16 * time.Second,
		Jitter:       time.Second,
		OtherDelay:   time.Second,
		OtherJitter:  500 * time.Millisecond,
	}
}

// Do runs fn until it succeeds or the attempt budget is spent. The last error
// is returned wrapped; no partial result survives a failed run.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	classify := p.Classify
	if classify == nil {
		classify = ClassifyError
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.InitialDelay
	var lastErr error
	attempt := 0
	for attempt < attempts {
		attempt++
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts || ctx.Err() != nil {
			break
		}

		class := classify(err)
		var wait time.Duration
		if class == ClassTransient {
			wait = delay + time.Duration(rnd()*float64(p.Jitter))
			delay *= 2
			if delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		} else {
			wait = p.OtherDelay + time.Duration(rnd()*float64(p.OtherJitter))
		}

		logger.Warn("external call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Stringer("class", class),
			zap.Duration("wait", wait),
			zap.Error(err))

		if err := sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}
	return fmt.Errorf("%s: giving up after %d attempt(s): %w", op, attempt, lastErr)
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
