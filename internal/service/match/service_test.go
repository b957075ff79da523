package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/cache"
	"github.com/classmatch/classmatch/internal/config"
	"github.com/classmatch/classmatch/internal/db"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/service/match"
)

//
// Test helpers
//

type testEnv struct {
	svc *match.Service
	db  *gorm.DB
	cfg *config.Config
}

// seedUsers inserts a minimal, deterministic dataset.
//
// Dataset:
//   - u1: male, seeks female
//   - u2: female, already liked u1 (so u1 liking u2 completes a match)
//   - u3: female, no prior activity
func seedUsers(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	users := []db.User{
		{ID: "u1", Name: "Aaron", Email: "u1@test.edu", Gender: db.GenderMale, InterestedIn: db.GenderFemale, College: "MIT", ProfileImageURL: "https://cdn.test/u1.jpg"},
		{ID: "u2", Name: "Beth", Email: "u2@test.edu", Gender: db.GenderFemale, InterestedIn: db.GenderMale, College: "MIT", ProfileImageURL: "https://cdn.test/u2.jpg", LikedUsers: db.IDList{"u1"}},
		{ID: "u3", Name: "Cara", Email: "u3@test.edu", Gender: db.GenderFemale, InterestedIn: db.GenderMale, College: "MIT", ProfileImageURL: "https://cdn.test/u3.jpg"},
	}
	require.NoError(t, gdb.Create(&users).Error)
}

// setupService spins up an in-memory SQLite DB, applies migrations, seeds
// test data, starts a miniredis, and wires everything into a match Service.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) testEnv {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	seedUsers(t, dbase)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return testEnv{svc: match.NewService(appCtx), db: dbase, cfg: cfg}
}

func reloadUser(t *testing.T, gdb *gorm.DB, id string) db.User {
	t.Helper()
	var u db.User
	require.NoError(t, gdb.First(&u, "id = ?", id).Error)
	return u
}

//
// Tests
//

// TestLikeUserMutual verifies that liking a user who already liked you back
// completes a match and records it on the actor's side only.
func TestLikeUserMutual(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	matched, err := env.svc.LikeUser(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, matched)

	u1 := reloadUser(t, env.db, "u1")
	assert.True(t, u1.LikedUsers.Contains("u2"))
	assert.True(t, u1.MatchedUsers.Contains("u2"))

	// the target's profile was never written
	u2 := reloadUser(t, env.db, "u2")
	assert.False(t, u2.MatchedUsers.Contains("u1"))

	items, err := env.svc.ListMatches(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u2", items[0].OtherUser.ID)

	// the match is visible from the other side too
	items, err = env.svc.ListMatches(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u1", items[0].OtherUser.ID)
}

// TestLikeUserOneSided verifies that a like with no reciprocal like does not
// create a match.
func TestLikeUserOneSided(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	matched, err := env.svc.LikeUser(ctx, "u1", "u3")
	require.NoError(t, err)
	assert.False(t, matched)

	items, err := env.svc.ListMatches(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestLikeUserRepeatedIsIdempotentOnLists ensures a repeated like appends a
// second swipe log entry but leaves the liked list with a single entry.
func TestLikeUserRepeatedIsIdempotentOnLists(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	_, err := env.svc.LikeUser(ctx, "u1", "u3")
	require.NoError(t, err)
	_, err = env.svc.LikeUser(ctx, "u1", "u3")
	require.NoError(t, err)

	u1 := reloadUser(t, env.db, "u1")
	assert.Equal(t, db.IDList{"u3"}, u1.LikedUsers)

	var count int64
	require.NoError(t, env.db.Model(&db.Swipe{}).Where("actor_id = ?", "u1").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

// TestDislikeNeverMatches checks that a pass on someone who liked you does
// not create a match and does not touch their profile.
func TestDislikeNeverMatches(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	require.NoError(t, env.svc.DislikeUser(ctx, "u1", "u2"))

	u1 := reloadUser(t, env.db, "u1")
	assert.True(t, u1.DislikedUsers.Contains("u2"))
	assert.False(t, u1.MatchedUsers.Contains("u2"))

	items, err := env.svc.ListMatches(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestUnmatchThenRematch verifies unmatch hides the pair and a later mutual
// like produces a fresh match record.
func TestUnmatchThenRematch(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	matched, err := env.svc.LikeUser(ctx, "u1", "u2")
	require.NoError(t, err)
	require.True(t, matched)

	require.NoError(t, env.svc.Unmatch(ctx, "u1", "u2"))

	ok, err := env.svc.AreMatched(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := env.svc.ListMatches(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, items)

	// both still like each other in the logs, so another like re-matches
	matched, err = env.svc.LikeUser(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.True(t, matched)

	ok, err = env.svc.AreMatched(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestDuplicateMatchRecordsCollapse inserts a second active record for the
// same pair, simulating two concurrent mutual likes, and expects listing to
// surface a single logical match.
func TestDuplicateMatchRecordsCollapse(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	matched, err := env.svc.LikeUser(ctx, "u1", "u2")
	require.NoError(t, err)
	require.True(t, matched)

	var existing db.Match
	require.NoError(t, env.db.First(&existing).Error)
	dup := existing
	dup.ID = "race-duplicate"
	dup.CreatedAt = existing.CreatedAt + 1
	dup.LastMessageAt = dup.CreatedAt
	require.NoError(t, env.db.Create(&dup).Error)

	items, err := env.svc.ListMatches(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "race-duplicate", items[0].Match.ID)
}

// TestBlockUser verifies blocking scrubs the actor's matched and liked
// lists and records the block.
func TestBlockUser(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	matched, err := env.svc.LikeUser(ctx, "u1", "u2")
	require.NoError(t, err)
	require.True(t, matched)

	require.NoError(t, env.svc.BlockUser(ctx, "u1", "u2"))

	u1 := reloadUser(t, env.db, "u1")
	assert.True(t, u1.BlockedUsers.Contains("u2"))
	assert.False(t, u1.MatchedUsers.Contains("u2"))
	assert.False(t, u1.LikedUsers.Contains("u2"))
}

// TestReportUser checks reason validation and the reported-list side effect.
func TestReportUser(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	err := env.svc.ReportUser(ctx, "u1", "u2", "  ")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindInvalidInput, svcErr.KindOf(err))

	require.NoError(t, env.svc.ReportUser(ctx, "u1", "u2", "inappropriate photos"))

	u1 := reloadUser(t, env.db, "u1")
	assert.True(t, u1.ReportedUsers.Contains("u2"))

	var count int64
	require.NoError(t, env.db.Model(&db.Report{}).Where("reporter_id = ?", "u1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reports, err := env.svc.ListReports(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "u2", reports[0].ReportedID)
	assert.Equal(t, db.ReportPending, reports[0].Status)

	// other users see none of it
	reports, err = env.svc.ListReports(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

// TestDailySwipeLimit verifies swipes beyond the configured daily quota are
// rejected.
func TestDailySwipeLimit(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)
	env.cfg.Discovery.DailySwipeLimit = 2

	_, err := env.svc.LikeUser(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NoError(t, env.svc.DislikeUser(ctx, "u1", "u3"))

	_, err = env.svc.LikeUser(ctx, "u1", "u3")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindInvalidInput, svcErr.KindOf(err))

	remaining, err := env.svc.DailySwipesRemaining(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

// TestCountLikedYouCache verifies the DB fallback and the cached second
// read.
func TestCountLikedYouCache(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	_, err := env.svc.LikeUser(ctx, "u2", "u1")
	require.NoError(t, err)
	_, err = env.svc.LikeUser(ctx, "u3", "u1")
	require.NoError(t, err)

	// first call falls through to the swipe log
	n, err := env.svc.CountLikedYou(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// second call is served from cache
	n, err = env.svc.CountLikedYou(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

// TestLikeSelfRejected covers the self-swipe guard.
func TestLikeSelfRejected(t *testing.T) {
	ctx := context.Background()
	env := setupService(t)

	_, err := env.svc.LikeUser(ctx, "u1", "u1")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindInvalidInput, svcErr.KindOf(err))
}
