package link

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// Response is the awaitable half of a remote call. Dropping it without
// awaiting yields fire-and-forget semantics: no result, no error.
type Response struct {
	client  *Client
	callID  id.CallID
	method  string
	ch      chan Inbound
	timeout time.Duration
	sendErr error
	started time.Time
}

// CallID returns the correlation ID of this call.
func (r *Response) CallID() id.CallID { return r.callID }

// Await waits for the call result using the client's default timeout.
// It returns the JSON-decoded result value, ErrTimeout on expiry, a
// RemoteError if the client reported an exception, or ErrTargetMissing if
// the call addressed an object the client could not resolve.
func (r *Response) Await(ctx context.Context) (any, error) {
	return r.AwaitTimeout(ctx, r.timeout)
}

// AwaitTimeout is Await with a per-call timeout override.
func (r *Response) AwaitTimeout(ctx context.Context, timeout time.Duration) (any, error) {
	var value any
	if err := r.awaitInto(ctx, timeout, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// AwaitInto decodes the call result into dest using the default timeout.
func (r *Response) AwaitInto(ctx context.Context, dest any) error {
	return r.awaitInto(ctx, r.timeout, dest)
}

// AwaitIntoTimeout is AwaitInto with a per-call timeout override.
func (r *Response) AwaitIntoTimeout(ctx context.Context, timeout time.Duration, dest any) error {
	return r.awaitInto(ctx, timeout, dest)
}

func (r *Response) awaitInto(ctx context.Context, timeout time.Duration, dest any) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	if timeout <= 0 {
		timeout = r.timeout
	}

	timer := monitoring.NewTimer(r.metricsOrNil(), r.method)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		// Abandon the local wait only; the client may still execute the
		// method and its side effects persist.
		r.client.abandon(r.callID)
		if ctx.Err() == context.DeadlineExceeded {
			timer.Stop("timeout")
			return fmt.Errorf("%w: no reply to %s within %s", ErrTimeout, r.method, timeout)
		}
		timer.Stop("canceled")
		return ctx.Err()

	case inb, ok := <-r.ch:
		if !ok {
			timer.Stop("closed")
			return ErrClosed
		}
		if inb.Error != "" {
			timer.Stop("remote_error")
			return &RemoteError{Message: inb.Error}
		}
		if inb.Missing {
			timer.Stop("target_missing")
			return fmt.Errorf("%w: %s", ErrTargetMissing, r.method)
		}
		timer.Stop("ok")
		if len(inb.Result) == 0 {
			return nil
		}
		if err := sonic.Unmarshal(inb.Result, dest); err != nil {
			return fmt.Errorf("decode %s result: %w", r.method, err)
		}
		return nil
	}
}

func (r *Response) metricsOrNil() *monitoring.Metrics {
	if r.client == nil {
		return nil
	}
	return r.client.metrics
}
