package relay

import (
	"context"
	"sync"

	"github.com/okian/housecup/internal/adapters/cache"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/standings"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// HouseMetrics publishes each house's score and rank as gauges.
func HouseMetrics() Sink {
	var memo standings.Memo
	return SinkFunc(func(_ context.Context, v cache.View) error {
		rows, _ := memo.Get(v.Version, v.Events)
		for _, r := range rows {
			metrics.UpdateHouseStanding(string(r.House), r.Score, r.Rank)
		}
		return nil
	})
}

// LeaderLog logs whenever the leading house changes.
func LeaderLog(l logger.Logger) Sink {
	var (
		memo   standings.Memo
		mu     sync.Mutex
		leader model.House
	)
	return SinkFunc(func(ctx context.Context, v cache.View) error {
		rows, _ := memo.Get(v.Version, v.Events)
		if len(rows) == 0 || rows[0].Score == 0 {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if rows[0].House == leader {
			return nil
		}
		prev := leader
		leader = rows[0].House
		l.Info(ctx, "leading house changed",
			logger.String("leader", string(leader)),
			logger.String("previous", string(prev)),
			logger.Int("score", rows[0].Score),
			logger.Uint64("version", v.Version),
		)
		return nil
	})
}
