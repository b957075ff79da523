// Package match implements swipe recording, mutual-like detection and the
// block/report/unmatch operations.
package match

import (
	"context"
	"strings"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/db"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/repository"
)

// MatchItem pairs a match record with the other participant's profile for
// listing.
type MatchItem struct {
	Match     db.Match `json:"match"`
	OtherUser db.User  `json:"otherUser"`
}

// Service contains the matching business logic on top of repository and
// cache layers.
//
// Cross-user writes are deliberately asymmetric: Like/Unmatch only touch the
// acting user's own lists. Match membership is authoritative in the match
// record; the per-user matchedUsers list is a cached projection.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
	reports *repository.ReportRepository
}

// NewService creates a match Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
		reports: repository.NewReportRepository(appCtx.DB),
	}
}

func validatePair(actorID, targetID string) error {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(targetID) == "" {
		return svcErr.InvalidInput("user id must not be empty")
	}
	if actorID == targetID {
		return svcErr.InvalidInput("cannot swipe on yourself")
	}
	return nil
}

// LikeUser records a like by actor on target and reports whether it
// completed a mutual match.
//
// Behavior:
//  1. Appends a swipe log entry (not retried; a later step failing does not
//     roll it back).
//  2. Appends target to the actor's likedUsers if absent.
//  3. Reads the target's profile; missing target → NotFound.
//  4. Mutual when the target's likedUsers already contains the actor.
//  5. On mutual: creates a match record unless an active one exists for the
//     pair, and appends target to the actor's own matchedUsers. The
//     symmetric update to the target's list is NOT performed here.
//
// The existence check in step 5 is check-then-act: concurrent mutual likes
// can produce duplicate active records, which listing collapses by pair.
func (s *Service) LikeUser(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := validatePair(actorID, targetID); err != nil {
		return false, err
	}
	if err := s.consumeDailySwipe(ctx, actorID); err != nil {
		return false, err
	}

	if _, err := s.swipes.Append(ctx, actorID, targetID, db.SwipeLike); err != nil {
		return false, svcErr.Map(err)
	}

	if err := s.users.AppendToList(ctx, actorID, repository.ListLiked, targetID); err != nil {
		return false, svcErr.Map(err)
	}

	// suppress re-presentation within this session
	if err := s.appCtx.RedisCache.AddSessionSwiped(ctx, actorID, targetID); err != nil {
		s.appCtx.Logger.Warn("failed to record session swipe", "actor", actorID, "err", err)
	}

	target, err := s.users.Get(ctx, targetID)
	if err != nil {
		return false, svcErr.Map(err)
	}

	matched := target.LikedUsers.Contains(actorID)
	if matched {
		existing, err := s.matches.FindActiveByPair(ctx, actorID, targetID)
		if err != nil {
			return false, svcErr.Map(err)
		}
		if existing == nil {
			if _, err := s.matches.Create(ctx, actorID, targetID); err != nil {
				return false, svcErr.Map(err)
			}
			s.appCtx.Logger.Info("mutual match created", "actor", actorID, "target", targetID)
		}

		if err := s.users.AppendToList(ctx, actorID, repository.ListMatched, targetID); err != nil {
			return false, svcErr.Map(err)
		}
	}

	// refresh the target's liker count cache
	if err := s.appCtx.RedisCache.IncrLikeCount(ctx, targetID); err != nil {
		s.appCtx.Logger.Warn("failed to bump like count cache", "target", targetID, "err", err)
	}

	return matched, nil
}

// DislikeUser records a pass. No match logic, and the target's profile is
// never touched.
func (s *Service) DislikeUser(ctx context.Context, actorID, targetID string) error {
	if err := validatePair(actorID, targetID); err != nil {
		return err
	}
	if err := s.consumeDailySwipe(ctx, actorID); err != nil {
		return err
	}

	if _, err := s.swipes.Append(ctx, actorID, targetID, db.SwipeDislike); err != nil {
		return svcErr.Map(err)
	}

	if err := s.users.AppendToList(ctx, actorID, repository.ListDisliked, targetID); err != nil {
		return svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.AddSessionSwiped(ctx, actorID, targetID); err != nil {
		s.appCtx.Logger.Warn("failed to record session swipe", "actor", actorID, "err", err)
	}
	return nil
}

// Unmatch removes otherID from the actor's matchedUsers and marks every
// active match record for the pair unmatched. The other user's list is not
// touched; their projection reconciles from the match record.
func (s *Service) Unmatch(ctx context.Context, actorID, otherID string) error {
	if err := validatePair(actorID, otherID); err != nil {
		return err
	}

	if err := s.users.RemoveFromList(ctx, actorID, repository.ListMatched, otherID); err != nil {
		return svcErr.Map(err)
	}
	if err := s.matches.SetUnmatchedByPair(ctx, actorID, otherID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// BlockUser appends to the actor's blockedUsers and removes the blocked id
// from the actor's matchedUsers and likedUsers. Discovery hides blocked
// pairs in both directions from then on.
func (s *Service) BlockUser(ctx context.Context, actorID, blockedID string) error {
	if err := validatePair(actorID, blockedID); err != nil {
		return err
	}

	if err := s.users.AppendToList(ctx, actorID, repository.ListBlocked, blockedID); err != nil {
		return svcErr.Map(err)
	}
	if err := s.users.RemoveFromList(ctx, actorID, repository.ListMatched, blockedID); err != nil {
		return svcErr.Map(err)
	}
	if err := s.users.RemoveFromList(ctx, actorID, repository.ListLiked, blockedID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// ReportUser files a pending report and appends the reported id to the
// reporter's reportedUsers.
func (s *Service) ReportUser(ctx context.Context, reporterID, reportedID, reason string) error {
	if err := validatePair(reporterID, reportedID); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return svcErr.InvalidInput("report reason must not be empty")
	}

	if _, err := s.reports.Create(ctx, reporterID, reportedID, reason); err != nil {
		return svcErr.Map(err)
	}
	if err := s.users.AppendToList(ctx, reporterID, repository.ListReported, reportedID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// ListReports returns the reports the user has filed, newest first.
func (s *Service) ListReports(ctx context.Context, reporterID string) ([]db.Report, error) {
	if strings.TrimSpace(reporterID) == "" {
		return nil, svcErr.InvalidInput("user id must not be empty")
	}
	reports, err := s.reports.ListByReporter(ctx, reporterID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return reports, nil
}

// ListMatches returns the user's active matches deduplicated by pair,
// newest first, each joined with the other participant's profile. Matches
// whose other profile has vanished are skipped rather than failing the
// whole listing.
func (s *Service) ListMatches(ctx context.Context, userID string) ([]MatchItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, svcErr.InvalidInput("user id must not be empty")
	}

	matches, err := s.matches.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	items := make([]MatchItem, 0, len(matches))
	for _, m := range matches {
		otherID := m.UserBID
		if otherID == userID {
			otherID = m.UserAID
		}
		other, err := s.users.Get(ctx, otherID)
		if err != nil {
			if svcErr.IsNotFound(err) {
				s.appCtx.Logger.Warn("match references missing profile", "match", m.ID, "other", otherID)
				continue
			}
			return nil, svcErr.Map(err)
		}
		items = append(items, MatchItem{Match: m, OtherUser: other})
	}
	return items, nil
}

// AreMatched reports whether an active match exists for the pair, used to
// gate chat access.
func (s *Service) AreMatched(ctx context.Context, userA, userB string) (bool, error) {
	existing, err := s.matches.FindActiveByPair(ctx, userA, userB)
	if err != nil {
		return false, svcErr.Map(err)
	}
	return existing != nil, nil
}

// CountLikedYou returns how many users liked the given user.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On cache miss, falls back to the swipe log.
//  3. On fallback, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, svcErr.InvalidInput("user id must not be empty")
	}

	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	}

	count, err := s.swipes.CountLikers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.UpdateLikeCount(ctx, userID, count)

	return count, nil
}

// LikeHistory lists the user's like-direction swipes, newest first, with
// cursor pagination.
func (s *Service) LikeHistory(ctx context.Context, userID string, token *string, limit int) ([]db.Swipe, *string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, svcErr.InvalidInput("user id must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	swipes, next, err := s.swipes.LikeHistory(ctx, userID, token, limit)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	return swipes, next, nil
}
