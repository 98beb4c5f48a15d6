package retry

import (
	"context"
	"math/rand"
	"time"
)

// WithRetry reintenta fn ante cualquier error.
func WithRetry(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	fn func() error,
) error {
	return WithRetryIf(ctx, attempts, baseDelay, func(error) bool { return true }, fn)
}

// WithRetryIf reintenta solo mientras shouldRetry acepte el error.
// Un error no reintentable se devuelve en el acto.
func WithRetryIf(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	shouldRetry func(error) bool,
	fn func() error,
) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		// Verificar si el context expiró
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return err
		}

		// No hacer sleep en el último intento
		if i == attempts {
			break
		}

		// Backoff exponencial con jitter
		sleep := baseDelay * time.Duration(1<<uint(i-1))
		if baseDelay > 0 {
			sleep += time.Duration(rand.Int63n(int64(baseDelay)))
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
