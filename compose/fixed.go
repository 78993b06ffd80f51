package compose

import (
	"context"
	"time"
)

// Fixed is a non-interactive composer that waits Delay and then returns Text.
type Fixed struct {
	Delay time.Duration
	Text  string
}

func (f Fixed) Compose(ctx context.Context) (Result, error) {
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-t.C:
		return Result{Text: f.Text, Lines: 1}, nil
	}
}
