package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"triostack/internal/apierror"
	"triostack/internal/config"
	"triostack/internal/dto"
	"triostack/internal/model"
	"triostack/internal/repository"
)

// AuthService handles credential checks and token issuance. Access and
// refresh tokens are both HS256; refresh tokens carry a "type" claim so one
// cannot be used in place of the other.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.AuthResponse, error)
	Profile(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type authService struct {
	users      repository.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		users:      users,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.JWTExpirationHours) * time.Hour,
		refreshTTL: time.Duration(cfg.JWTRefreshHours) * time.Hour,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apierror.Unauthenticated("Invalid email or password")
		}
		return nil, apierror.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apierror.Unauthenticated("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apierror.Forbidden("Account is deactivated")
	}
	return s.issueTokens(user)
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	taken, err := s.users.EmailTaken(ctx, email, primitive.NilObjectID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if taken {
		return nil, apierror.Conflict("User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	role := model.RoleEmployee
	if req.Role != "" {
		role = model.Role(req.Role)
	}
	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   req.Department,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apierror.Internal(err)
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.AuthResponse, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthenticated("Invalid refresh token")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Unauthenticated("Invalid refresh token")
	}
	if kind, _ := claims["type"].(string); kind != "refresh" {
		return nil, apierror.Unauthenticated("Invalid refresh token")
	}
	userID, _ := claims["user_id"].(string)

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apierror.Forbidden("Account is deactivated")
	}
	return s.issueTokens(user)
}

func (s *authService) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, apierror.Internal(err)
			}
			if taken {
				return nil, apierror.Conflict("User with this email already exists")
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Department != nil {
		user.Department = *req.Department
	}

	if err := s.users.Update(ctx, user); err != nil {
		if err == repository.ErrNotFound {
			return nil, apierror.NotFound("User not found")
		}
		return nil, apierror.Internal(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *authService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apierror.NotFound("User not found")
		}
		return nil, apierror.Internal(err)
	}
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.AuthResponse, error) {
	access, err := s.signToken(user, s.accessTTL, "")
	if err != nil {
		return nil, apierror.Internal(err)
	}
	refresh, err := s.signToken(user, s.refreshTTL, "refresh")
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return &dto.AuthResponse{
		User:         toUserResponse(user),
		Token:        access,
		RefreshToken: refresh,
	}, nil
}

func (s *authService) signToken(user *model.User, ttl time.Duration, kind string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if kind != "" {
		claims["type"] = kind
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
