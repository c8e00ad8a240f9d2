package dedup

import "context"

// Cache suppresses repeat signals for the same (ticker, exchange, direction)
// within a cooldown window. Implementations must fail open: an unreachable
// backend reports no duplicate rather than blocking signal flow.
type Cache interface {
	IsDuplicate(ctx context.Context, ticker, exchange, direction string) bool
	Record(ctx context.Context, ticker, exchange, direction string)
	Size(ctx context.Context) int
}

func cacheKey(ticker, exchange, direction string) string {
	return ticker + "|" + exchange + "|" + direction
}
