package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_ExpiresSlowCall(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want cause preserved", err)
	}
}

func TestTimeout_FastCallPasses(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})
	boom := errors.New("boom")
	if err := to.Execute(context.Background(), succeeding); err != nil {
		t.Errorf("err = %v", err)
	}
	if err := to.Execute(context.Background(), func(context.Context) error { return boom }); err != boom {
		t.Errorf("err = %v, want boom unchanged", err)
	}
}

func TestTimeout_CallerCancellationNotReportedAsTimeout(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := to.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled only", err)
	}
}

func TestTimeout_Defaults(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != 10*time.Second {
		t.Errorf("default timeout = %v", got)
	}
}
