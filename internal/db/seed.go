package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/chatkey"
)

// SeedTestData resets the database and populates it with demo profiles,
// swipes and a few mutual matches.
//
// Behavior:
//  1. Clears users, swipes, matches, reports, chat tables.
//  2. Creates 20 users (10 male, 10 female) across two colleges, all with
//     a profile image set so they pass discovery.
//  3. Generates ~120 swipes with ~70% likes; every 3rd like is made mutual
//     and gets a match record.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"chat_summaries", "chat_messages", "reports", "matches", "swipes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	colleges := []string{"State University", "State University - North Campus"}
	departments := []string{"CS", "Physics", "History", "Biology"}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ids := make([]string, 0, 20)
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, interested := GenderMale, GenderFemale
		if i > 10 {
			gender, interested = GenderFemale, GenderMale
		}

		u := User{
			ID:                   fmt.Sprintf("seed-user-%02d", i),
			Name:                 fmt.Sprintf("User %d", i),
			Email:                fmt.Sprintf("user%d@example.com", i),
			PasswordHash:         string(hash),
			Age:                  18 + r.Intn(8),
			Gender:               gender,
			InterestedIn:         interested,
			College:              colleges[i%len(colleges)],
			Department:           departments[i%len(departments)],
			Year:                 fmt.Sprintf("%d", 1+i%4),
			Bio:                  "Seeded demo profile",
			ProfileImageURL:      fmt.Sprintf("https://cdn.example.com/seed/%02d.jpg", i),
			ProfileImagePublicID: fmt.Sprintf("seed/%02d", i),
			LastSeen:             time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour).UnixMilli(),
		}
		ids = append(ids, u.ID)
		users = append(users, u)
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Println("Seeded 20 users.")

	counter := 0
	for i, actorID := range ids {
		for j := 0; j < 6; j++ {
			targetID := ids[r.Intn(len(ids))]
			if targetID == actorID {
				continue
			}

			actor := &users[i]
			if actor.LikedUsers.Contains(targetID) || actor.DislikedUsers.Contains(targetID) {
				continue
			}

			direction := SwipeLike
			if r.Intn(100) >= 70 {
				direction = SwipeDislike
			}
			mutual := direction == SwipeLike && counter%3 == 0

			swipe := Swipe{
				ID:        uuid.NewString(),
				ActorID:   actorID,
				TargetID:  targetID,
				Direction: direction,
				Timestamp: time.Now().UnixMilli(),
			}
			if err := db.Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}

			if direction == SwipeLike {
				actor.LikedUsers = actor.LikedUsers.Append(targetID)
			} else {
				actor.DislikedUsers = actor.DislikedUsers.Append(targetID)
			}

			if mutual {
				var target *User
				for k := range users {
					if users[k].ID == targetID {
						target = &users[k]
						break
					}
				}
				target.LikedUsers = target.LikedUsers.Append(actorID)
				actor.MatchedUsers = actor.MatchedUsers.Append(targetID)

				reciprocal := Swipe{
					ID:        uuid.NewString(),
					ActorID:   targetID,
					TargetID:  actorID,
					Direction: SwipeLike,
					Timestamp: time.Now().UnixMilli(),
				}
				if err := db.Create(&reciprocal).Error; err != nil {
					return fmt.Errorf("failed to seed swipe: %w", err)
				}

				match := Match{
					ID:            uuid.NewString(),
					UserAID:       actorID,
					UserBID:       targetID,
					PairKey:       chatkey.PairKey(actorID, targetID),
					CreatedAt:     time.Now().UnixMilli(),
					LastMessageAt: time.Now().UnixMilli(),
					Status:        MatchActive,
				}
				if err := db.Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}

	// persist the accumulated id-lists
	for i := range users {
		if err := db.Save(&users[i]).Error; err != nil {
			return fmt.Errorf("failed to update seeded user: %w", err)
		}
	}

	return nil
}
