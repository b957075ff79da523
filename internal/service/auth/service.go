// Package auth implements account registration, login and token
// verification.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/db"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/repository"
)

// Service issues and verifies credentials.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	secret []byte
}

// NewService creates an auth Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		secret: []byte(appCtx.Cfg.Auth.JWTSecret),
	}
}

// RegisterInput carries the fields needed to open an account. Profile
// details beyond these are filled in afterwards via the profile service.
type RegisterInput struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	Age          int       `json:"age"`
	Gender       db.Gender `json:"gender"`
	InterestedIn db.Gender `json:"interestedIn"`
	College      string    `json:"college"`
}

// AuthResponse pairs the stored profile with a bearer token.
type AuthResponse struct {
	User  db.User `json:"user"`
	Token string  `json:"token"`
}

// Register creates an account and returns it with a fresh token.
// Duplicate emails are rejected.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, svcErr.InvalidInput("a valid email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, svcErr.InvalidInput("name is required")
	}
	if len(input.Password) < 8 {
		return nil, svcErr.InvalidInput("password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, svcErr.InvalidInput("email already registered")
	} else if !svcErr.IsNotFound(err) {
		return nil, svcErr.Map(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	user := db.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: string(hash),
		Age:          input.Age,
		Gender:       input.Gender,
		InterestedIn: input.InterestedIn,
		College:      strings.TrimSpace(input.College),
		IsOnline:     true,
		LastSeen:     time.Now().UnixMilli(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, svcErr.Map(err)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("account registered", "user", user.ID)
	return &AuthResponse{User: user, Token: token}, nil
}

// Login verifies credentials, marks the user online and returns a fresh
// token. Wrong email and wrong password are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.Unauthenticated("invalid email or password")
		}
		return nil, svcErr.Map(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, svcErr.Unauthenticated("invalid email or password")
	}

	now := time.Now().UnixMilli()
	if err := s.users.SetOnline(ctx, user.ID, true, now); err != nil {
		s.appCtx.Logger.Warn("failed to mark user online", "user", user.ID, "err", err)
	}
	user.IsOnline = true
	user.LastSeen = now

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// Logout marks the user offline and stamps lastSeen.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return svcErr.InvalidInput("user id must not be empty")
	}
	if err := s.users.SetOnline(ctx, userID, false, time.Now().UnixMilli()); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.appCtx.Cfg.Auth.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken parses a bearer token and returns the subject user id.
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, svcErr.Unauthenticated("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", svcErr.Unauthenticated("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", svcErr.Unauthenticated("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", svcErr.Unauthenticated("token has no subject")
	}
	return sub, nil
}
