package employee

import "context"

// SwapWithRetry runs a read-compute-swap attempt. A lost race (attempt returns
// false) is retried once with a fresh read; a second loss is ErrBalanceConflict.
func SwapWithRetry(ctx context.Context, attempt func(ctx context.Context) (bool, error)) error {
	for i := 0; i < 2; i++ {
		ok, err := attempt(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrBalanceConflict
}
