package resilience

import "context"

// ExecuteFunc is the Execute method of any pattern in this package.
type ExecuteFunc func(ctx context.Context, op func(context.Context) error) error

// Do runs a value-returning operation through exec. The value from the last
// successful attempt is returned.
func Do[T any](ctx context.Context, exec ExecuteFunc, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := exec(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
