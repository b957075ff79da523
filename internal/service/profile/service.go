// Package profile manages profile reads, partial updates and the profile
// image lifecycle.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/blob"
	"github.com/classmatch/classmatch/internal/db"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/repository"
)

// ImageStore is the slice of blob.Store the profile service needs.
type ImageStore interface {
	Upload(ctx context.Context, ownerID string, data []byte, contentType string) (blob.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
	PresignUpload(ctx context.Context, ownerID, contentType string) (url, publicID string, err error)
}

// PresignedUpload is a direct-to-bucket upload grant. The client PUTs the
// image to UploadURL, then confirms by patching the profile with PublicID.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	PublicID  string `json:"publicId"`
}

// updatableColumns is the whitelist for partial profile updates. Auth
// fields, image fields and the relationship lists have their own paths and
// are never patchable here.
var updatableColumns = map[string]struct{}{
	"name":          {},
	"age":           {},
	"bio":           {},
	"college":       {},
	"department":    {},
	"year":          {},
	"gender":        {},
	"interested_in": {},
}

// Service reads and mutates profile rows.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	images ImageStore
}

// NewService creates a profile Service. images may be nil when image
// handling is disabled.
func NewService(appCtx *app.AppContext, images ImageStore) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		images: images,
	}
}

// Get returns the profile row.
func (s *Service) Get(ctx context.Context, userID string) (db.User, error) {
	if strings.TrimSpace(userID) == "" {
		return db.User{}, svcErr.InvalidInput("user id must not be empty")
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return db.User{}, svcErr.Map(err)
	}
	return user, nil
}

// UpdateFields applies a partial update. Unknown columns are rejected
// rather than silently dropped. Returns the refreshed row.
func (s *Service) UpdateFields(ctx context.Context, userID string, fields map[string]any) (db.User, error) {
	if strings.TrimSpace(userID) == "" {
		return db.User{}, svcErr.InvalidInput("user id must not be empty")
	}
	if len(fields) == 0 {
		return db.User{}, svcErr.InvalidInput("no fields to update")
	}
	for column := range fields {
		if _, ok := updatableColumns[column]; !ok {
			return db.User{}, svcErr.InvalidInput(fmt.Sprintf("field %q is not updatable", column))
		}
	}
	if g, ok := fields["gender"]; ok && !validGender(g, false) {
		return db.User{}, svcErr.InvalidInput("invalid gender")
	}
	if g, ok := fields["interested_in"]; ok && !validGender(g, true) {
		return db.User{}, svcErr.InvalidInput("invalid gender preference")
	}

	// make sure the row exists so a typo'd id is NotFound, not a silent
	// zero-row update
	if _, err := s.users.Get(ctx, userID); err != nil {
		return db.User{}, svcErr.Map(err)
	}
	if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		return db.User{}, svcErr.Map(err)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return db.User{}, svcErr.Map(err)
	}
	return user, nil
}

func validGender(v any, allowAll bool) bool {
	str, ok := v.(string)
	if !ok {
		if g, isGender := v.(db.Gender); isGender {
			str = string(g)
		} else {
			return false
		}
	}
	switch db.Gender(str) {
	case db.GenderMale, db.GenderFemale, db.GenderOther:
		return true
	case db.GenderAll:
		return allowAll
	}
	return false
}

// SetImage uploads a new profile image, points the profile at it and
// removes the previous object. Deleting the old object is best-effort.
func (s *Service) SetImage(ctx context.Context, userID string, data []byte, contentType string) (blob.UploadResult, error) {
	var empty blob.UploadResult

	if s.images == nil {
		return empty, svcErr.Unavailable("image storage is not configured", nil)
	}
	if strings.TrimSpace(userID) == "" {
		return empty, svcErr.InvalidInput("user id must not be empty")
	}
	if len(data) == 0 {
		return empty, svcErr.InvalidInput("image payload is empty")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return empty, svcErr.InvalidInput("payload must be an image")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return empty, svcErr.Map(err)
	}

	result, err := s.images.Upload(ctx, userID, data, contentType)
	if err != nil {
		return empty, svcErr.Map(err)
	}

	err = s.users.UpdateFields(ctx, userID, map[string]any{
		"profile_image_url":       result.SecureURL,
		"profile_image_public_id": result.PublicID,
	})
	if err != nil {
		return empty, svcErr.Map(err)
	}

	if user.ProfileImagePublicID != "" {
		if err := s.images.Delete(ctx, user.ProfileImagePublicID); err != nil {
			s.appCtx.Logger.Warn("failed to delete previous profile image",
				"user", userID, "publicId", user.ProfileImagePublicID, "err", err)
		}
	}
	return result, nil
}

// PresignImage hands out a short-lived direct-upload URL as an alternative
// to proxying the image bytes through SetImage.
func (s *Service) PresignImage(ctx context.Context, userID, contentType string) (PresignedUpload, error) {
	var empty PresignedUpload

	if s.images == nil {
		return empty, svcErr.Unavailable("image storage is not configured", nil)
	}
	if strings.TrimSpace(userID) == "" {
		return empty, svcErr.InvalidInput("user id must not be empty")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return empty, svcErr.InvalidInput("payload must be an image")
	}

	if _, err := s.users.Get(ctx, userID); err != nil {
		return empty, svcErr.Map(err)
	}

	url, publicID, err := s.images.PresignUpload(ctx, userID, contentType)
	if err != nil {
		return empty, svcErr.Map(err)
	}
	return PresignedUpload{UploadURL: url, PublicID: publicID}, nil
}

// RemoveImage clears the profile image and deletes the stored object
// best-effort.
func (s *Service) RemoveImage(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return svcErr.InvalidInput("user id must not be empty")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return svcErr.Map(err)
	}

	err = s.users.UpdateFields(ctx, userID, map[string]any{
		"profile_image_url":       "",
		"profile_image_public_id": "",
	})
	if err != nil {
		return svcErr.Map(err)
	}

	if s.images != nil && user.ProfileImagePublicID != "" {
		if err := s.images.Delete(ctx, user.ProfileImagePublicID); err != nil {
			s.appCtx.Logger.Warn("failed to delete profile image",
				"user", userID, "publicId", user.ProfileImagePublicID, "err", err)
		}
	}
	return nil
}
