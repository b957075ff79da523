package match

import (
	"context"
	"time"

	svcErr "github.com/classmatch/classmatch/internal/errors"
)

// consumeDailySwipe enforces the per-day swipe quota and, when there is
// headroom, consumes one unit of it.
//
// The counter lives in Redis keyed by (user, UTC calendar day), so the
// quota resets at midnight UTC regardless of when it was exhausted. If
// Redis is unreachable the swipe is allowed: the quota is a soft product
// limit, not an integrity guarantee.
func (s *Service) consumeDailySwipe(ctx context.Context, userID string) error {
	limit := s.appCtx.Cfg.Discovery.DailySwipeLimit
	if limit <= 0 {
		return nil
	}

	now := time.Now().UTC()
	used, err := s.appCtx.RedisCache.GetDailySwipes(ctx, userID, now)
	if err != nil {
		s.appCtx.Logger.Warn("daily swipe counter unavailable", "user", userID, "err", err)
		return nil
	}
	if used >= int64(limit) {
		return svcErr.InvalidInput("daily swipe limit reached")
	}

	if _, err := s.appCtx.RedisCache.IncrDailySwipes(ctx, userID, now); err != nil {
		s.appCtx.Logger.Warn("failed to increment daily swipe counter", "user", userID, "err", err)
	}
	return nil
}

// DailySwipesRemaining reports how many swipes the user has left today.
func (s *Service) DailySwipesRemaining(ctx context.Context, userID string) (int64, error) {
	limit := int64(s.appCtx.Cfg.Discovery.DailySwipeLimit)
	if limit <= 0 {
		return 0, nil
	}
	used, err := s.appCtx.RedisCache.GetDailySwipes(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}
