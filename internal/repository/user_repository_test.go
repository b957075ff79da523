package repository_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/db"
	"github.com/classmatch/classmatch/internal/repository"
)

func seedUser(t *testing.T, repo *repository.UserRepository, id string) db.User {
	t.Helper()
	user := db.User{
		ID:           id,
		Name:         "User " + id,
		Email:        id + "@test.com",
		PasswordHash: "x",
		Age:          20,
		Gender:       db.GenderFemale,
		InterestedIn: db.GenderMale,
		College:      "State University",
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user
}

func TestUserRepository_GetNotFound(t *testing.T) {
	repo := repository.NewUserRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "u1")

	err := repo.UpdateFields(ctx, "u1", map[string]any{"bio": "hello", "year": "3"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "3", got.Year)
	// untouched fields survive the partial merge
	assert.Equal(t, "State University", got.College)
}

func TestUserRepository_AppendToListIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "u1")

	require.NoError(t, repo.AppendToList(ctx, "u1", repository.ListLiked, "u2"))
	require.NoError(t, repo.AppendToList(ctx, "u1", repository.ListLiked, "u2"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, db.IDList{"u2"}, got.LikedUsers)
}

func TestUserRepository_RemoveFromList(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "u1")

	require.NoError(t, repo.AppendToList(ctx, "u1", repository.ListMatched, "u2"))
	require.NoError(t, repo.AppendToList(ctx, "u1", repository.ListMatched, "u3"))
	require.NoError(t, repo.RemoveFromList(ctx, "u1", repository.ListMatched, "u2"))
	// removing an absent id is a no-op
	require.NoError(t, repo.RemoveFromList(ctx, "u1", repository.ListMatched, "u9"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, db.IDList{"u3"}, got.MatchedUsers)
}

func TestUserRepository_ListColumnsStoreJSON(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewUserRepository(database)
	seedUser(t, repo, "u1")

	require.NoError(t, repo.AppendToList(ctx, "u1", repository.ListLiked, "u2"))

	// the raw column must hold a JSON array, not a flattened string
	var raw string
	require.NoError(t, database.Raw(
		"SELECT liked_users FROM users WHERE id = ?", "u1").Scan(&raw).Error)
	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded),
		"liked_users column is not valid JSON: %q", raw)
	assert.Equal(t, []string{"u2"}, decoded)

	// and the row stays readable through the normal path
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, db.IDList{"u2"}, got.LikedUsers)

	// emptying the list keeps the column decodable too
	require.NoError(t, repo.RemoveFromList(ctx, "u1", repository.ListLiked, "u2"))
	_, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
}

func TestUserRepository_SetOnline(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "u1")

	require.NoError(t, repo.SetOnline(ctx, "u1", true, 1234))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsOnline)
	assert.Equal(t, int64(1234), got.LastSeen)
}
