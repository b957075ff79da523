// Package discover assembles the deck of candidate profiles a user can
// swipe through.
package discover

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/db"
	"github.com/classmatch/classmatch/internal/discovery"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/repository"
)

// PoolLoader supplies the raw candidate pool. Satisfied by
// repository.UserRepository; substituted in tests.
type PoolLoader interface {
	ListAll(ctx context.Context) ([]db.User, error)
}

// Service loads, filters and shuffles discovery candidates.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	swipes *repository.SwipeRepository
	pool   PoolLoader
	filter discovery.Filter
}

// NewService creates a discover Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	users := repository.NewUserRepository(appCtx.DB)
	return &Service{
		appCtx: appCtx,
		users:  users,
		swipes: repository.NewSwipeRepository(appCtx.DB),
		pool:   users,
		filter: discovery.Filter{
			Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		},
	}
}

// NewServiceWithPool creates a Service reading candidates from a custom
// PoolLoader instead of the user table.
func NewServiceWithPool(appCtx *app.AppContext, pool PoolLoader) *Service {
	svc := NewService(appCtx)
	svc.pool = pool
	return svc
}

// LoadCandidates returns the shuffled set of profiles the viewer may swipe
// on right now.
//
// Behavior:
//   - The viewer must exist and have a complete profile.
//   - A viewer who has exhausted today's swipe quota gets an empty deck, not
//     an error.
//   - The pool read is retried on transient failures with a linear backoff
//     (attempt N sleeps N * base delay before retrying).
//   - Non-candidates are removed by the eligibility rules, then anything
//     swiped in the current session is suppressed.
func (s *Service) LoadCandidates(ctx context.Context, viewerID string) ([]db.User, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, svcErr.InvalidInput("user id must not be empty")
	}

	viewer, err := s.users.Get(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if reason := IncompleteProfileReason(viewer); reason != "" {
		return nil, svcErr.InvalidInput(reason)
	}

	limit := s.appCtx.Cfg.Discovery.DailySwipeLimit
	if limit > 0 {
		used, err := s.appCtx.RedisCache.GetDailySwipes(ctx, viewerID, time.Now().UTC())
		if err != nil {
			s.appCtx.Logger.Warn("daily swipe counter unavailable", "user", viewerID, "err", err)
		} else if used >= int64(limit) {
			s.appCtx.Logger.Info("daily swipe limit reached", "user", viewerID)
			return []db.User{}, nil
		}
	}

	pool, err := s.loadPoolWithRetry(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	auxSwiped, err := s.swipes.SwipedTargetIDs(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	candidates := s.filter.Eligible(viewer, pool, auxSwiped)

	sessionSwiped, err := s.appCtx.RedisCache.SessionSwiped(ctx, viewerID)
	if err != nil {
		s.appCtx.Logger.Warn("session swipe set unavailable", "user", viewerID, "err", err)
		return candidates, nil
	}
	if len(sessionSwiped) == 0 {
		return candidates, nil
	}

	fresh := candidates[:0]
	for _, c := range candidates {
		if _, seen := sessionSwiped[c.ID]; !seen {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}

// loadPoolWithRetry reads the candidate pool, retrying transient failures.
// Attempt N waits N * base delay before running, so three attempts with a
// 2s base spread over 2s + 4s.
func (s *Service) loadPoolWithRetry(ctx context.Context) ([]db.User, error) {
	attempts := s.appCtx.Cfg.Discovery.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	baseDelay := s.appCtx.Cfg.Discovery.RetryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err := s.pool.ListAll(ctx)
		if err == nil {
			return pool, nil
		}
		lastErr = err
		if !svcErr.IsUnavailable(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}
		s.appCtx.Logger.Warn("candidate pool read failed, retrying",
			"attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * baseDelay):
		}
	}
	return nil, lastErr
}

// ResetSession clears the session-swiped suppression set, so previously
// swiped profiles may reappear in the deck (their permanent swipe history
// still excludes re-swiped users).
func (s *Service) ResetSession(ctx context.Context, viewerID string) error {
	if strings.TrimSpace(viewerID) == "" {
		return svcErr.InvalidInput("user id must not be empty")
	}
	if err := s.appCtx.RedisCache.ClearSessionSwiped(ctx, viewerID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// IncompleteProfileReason returns "" when the profile has everything
// discovery needs, otherwise a user-facing description of what is missing.
//
// The gate mirrors the image rule candidates are filtered on: presence is
// judged by the stored object id, not the display URL.
func IncompleteProfileReason(u db.User) string {
	switch {
	case strings.TrimSpace(u.Name) == "":
		return "add your name to start discovering"
	case strings.TrimSpace(u.College) == "":
		return "add your college to start discovering"
	case strings.TrimSpace(u.Department) == "":
		return "add your department to start discovering"
	case strings.TrimSpace(u.Year) == "":
		return "add your year to start discovering"
	case u.Age < 18:
		return "you must be at least 18 to discover"
	case u.ProfileImagePublicID == "":
		return "add a profile photo to start discovering"
	}
	return ""
}
