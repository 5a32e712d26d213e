package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"terminusdex/internal/chain"
)

// pager fetches transaction pages with an adaptive size: halved after a
// failed read, doubled back towards max after a successful one.
type pager struct {
	max     int
	size    int
	backoff time.Duration
	logger  *zap.Logger
}

func newPager(max int, backoff time.Duration, logger *zap.Logger) *pager {
	if max < 1 {
		max = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &pager{max: max, size: max, backoff: backoff, logger: logger}
}

// next retries fetch with shrinking limits until it succeeds. A failure at
// limit 1 is returned.
func (p *pager) next(ctx context.Context, fetch func(ctx context.Context, limit int) ([]chain.Transaction, error)) ([]chain.Transaction, error) {
	delay := p.backoff
	for {
		txs, err := fetch(ctx, p.size)
		if err == nil {
			if p.size < p.max {
				p.size = min(p.max, p.size*2)
			}
			return txs, nil
		}
		if p.size <= 1 {
			return nil, err
		}
		p.size = max(1, p.size/2)
		p.logger.Warn("transaction page failed", zap.Error(err), zap.Int("next_limit", p.size))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
