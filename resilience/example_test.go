package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/catalogops/resilience"
)

func ExampleRetry_Execute() {
	transient := errors.New("connection reset")
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return errors.Is(err, transient) },
	})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 2 {
			return transient
		}
		return nil
	})
	fmt.Println("attempts:", attempts, "err:", err)
	// Output:
	// attempts: 2 err: <nil>
}

func ExampleDo() {
	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})

	n, err := resilience.Do(context.Background(), bulkhead.Execute, func(context.Context) (int, error) {
		return 3, nil
	})
	fmt.Println(n, err)
	// Output:
	// 3 <nil>
}
