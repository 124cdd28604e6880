package store

import (
	"context"
	"fmt"
	"strconv"
)

// ReadCounter returns the integer counter at key. A counter that was never
// incremented reads as zero.
func ReadCounter(ctx context.Context, st Store, key string) (int64, error) {
	raw, found, err := st.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, ErrNotInteger)
	}
	return n, nil
}
