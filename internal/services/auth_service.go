package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/dto"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRoleMismatch       = errors.New("credentials are valid, but not for the selected role")
	ErrInvalidRole        = errors.New(`role must be "patient" or "doctor"`)
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	users  store.UserStore
	tokens store.RefreshTokenStore
	cfg    *config.Config
}

func NewAuthService(users store.UserStore, tokens store.RefreshTokenStore, cfg *config.Config) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg}
}

// Register creates an account. Role is fixed to patient or doctor at
// creation. The new user is returned without being logged in.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if !models.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("username and name are required")
	}
	if len(req.Password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}

	if _, err := s.users.ByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Password: string(hash),
		Name:     req.Name,
		Role:     req.Role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toUserResponse(&user), nil
}

// Login checks username, password and role together: valid credentials
// for the wrong role are rejected the same way bad credentials are.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Role != req.Role {
		return nil, ErrRoleMismatch
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	stored, err := s.tokens.ByHash(ctx, hashToken(req.RefreshToken))
	if err != nil || stored.Revoked {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokens.Revoke(ctx, stored.ID)
		return nil, ErrInvalidToken
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	user, err := s.users.ByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.tokens.RevokeByHash(ctx, hashToken(req.RefreshToken))
}

// CurrentUser resolves the session user behind an access token.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// UpdateProfile edits name, username and role. Role stays mutable after
// registration; existing appointments tied to the old role are not
// re-validated, which is a known data-integrity gap we surface in the
// logs rather than silently repair.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Username) == "" {
		return nil, errors.New("name and username are required")
	}
	if !models.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	if req.Username != user.Username {
		if _, err := s.users.ByUsername(ctx, req.Username); err == nil {
			return nil, ErrUsernameTaken
		}
	}

	if req.Role != user.Role {
		slog.Warn("user role changed; existing appointments are not re-validated",
			"user_id", user.ID.String(), "old_role", user.Role, "new_role", req.Role)
	}

	user.Name = req.Name
	user.Username = req.Username
	user.Role = req.Role

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return toUserResponse(user), nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *toUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.tokens.Create(ctx, &record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func toUserResponse(u *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
