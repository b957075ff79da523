package auth_test

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
	"github.com/classmatch/classmatch/internal/service/auth"
)

func setupService(t *testing.T) (*auth.Service, *gorm.DB) {
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.JWTSecret = "test-secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, dbase, cache.NewRedisCache(cfg), logger)
	return auth.NewService(appCtx), dbase
}

func registerInput() auth.RegisterInput {
	return auth.RegisterInput{
		Name:         "Dana",
		Email:        "Dana@Test.edu",
		Password:     "correct-horse",
		Age:          21,
		Gender:       db.GenderFemale,
		InterestedIn: db.GenderMale,
		College:      "MIT",
	}
}

// TestRegisterAndVerify registers an account and round-trips the issued
// token back to the user id.
func TestRegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	resp, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "dana@test.edu", resp.User.Email)
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)

	userID, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)
}

// TestRegisterDuplicateEmail rejects a second account on the same address,
// case-insensitively.
func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	dup := registerInput()
	dup.Email = "DANA@test.edu"
	_, err = svc.Register(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindInvalidInput, svcErr.KindOf(err))
}

// TestRegisterValidation covers the input guards.
func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	short := registerInput()
	short.Password = "short"
	_, err := svc.Register(ctx, short)
	require.Error(t, err)

	noEmail := registerInput()
	noEmail.Email = "not-an-email"
	_, err = svc.Register(ctx, noEmail)
	require.Error(t, err)
}

// TestLogin verifies credential checking and the online side effect.
func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	reg, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, reg.User.ID))

	resp, err := svc.Login(ctx, "dana@test.edu", "correct-horse")
	require.NoError(t, err)
	assert.True(t, resp.User.IsOnline)

	var stored db.User
	require.NoError(t, gdb.First(&stored, "id = ?", reg.User.ID).Error)
	assert.True(t, stored.IsOnline)
	assert.NotZero(t, stored.LastSeen)
}

// TestLoginRejectsBadCredentials ensures wrong password and unknown email
// fail the same way.
func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "dana@test.edu", "wrong")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindUnauthenticated, svcErr.KindOf(err))

	_, err = svc.Login(ctx, "nobody@test.edu", "correct-horse")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindUnauthenticated, svcErr.KindOf(err))
}

// TestVerifyTokenRejectsGarbage covers malformed and foreign-key tokens.
func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.VerifyToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindUnauthenticated, svcErr.KindOf(err))
}
