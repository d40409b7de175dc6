package orders

import (
	"context"
	"fmt"
	"time"
)

const orderNumberPrefix = "KR"

// nextOrderNumber allocates the next order number for the given day, in the
// form KR+YYMMDD+4-digit sequence, e.g. KR2506010003. The counter document is
// incremented atomically so concurrent checkouts never collide.
func nextOrderNumber(ctx context.Context, counters CounterStore, at time.Time) (string, error) {
	day := orderNumberPrefix + at.Format("060102")
	seq, err := counters.Next(ctx, "order:"+day)
	if err != nil {
		return "", fmt.Errorf("order number allocation: %w", err)
	}
	return fmt.Sprintf("%s%04d", day, seq), nil
}
