package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"triostack/internal/apierror"
	"triostack/internal/dto"
	"triostack/internal/model"
	"triostack/internal/repository"
)

const bcryptCost = 12

// UserService covers directory CRUD. Deletion is a soft delete: the account
// is deactivated so historical allocations keep a resolvable user.
type UserService interface {
	List(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, *dto.Pagination, error)
	Get(ctx context.Context, id string) (*dto.UserResponse, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Deactivate(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, id string, req dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, id string, req dto.ResetPasswordRequest) error
	Stats(ctx context.Context) (*dto.UserStats, error)
	ByRole(ctx context.Context, role string) ([]dto.UserResponse, error)
	ByDepartment(ctx context.Context, department string) ([]dto.UserResponse, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, *dto.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, apierror.Internal(err)
	}
	return toUserResponses(users), dto.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *userService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
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
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.fetch(ctx, id)
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
	if req.Role != nil {
		user.Role = model.Role(*req.Role)
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.userErr(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Deactivate(ctx context.Context, id string) error {
	user, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return s.userErr(err)
	}
	return nil
}

func (s *userService) ToggleStatus(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.userErr(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ChangePassword(ctx context.Context, id string, req dto.ChangePasswordRequest) error {
	user, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apierror.Validation("Current password is incorrect")
	}
	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *userService) ResetPassword(ctx context.Context, id string, req dto.ResetPasswordRequest) error {
	user, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *userService) Stats(ctx context.Context) (*dto.UserStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return stats, nil
}

func (s *userService) ByRole(ctx context.Context, role string) ([]dto.UserResponse, error) {
	r := model.Role(role)
	if !r.Valid() {
		return nil, apierror.Validation("Invalid role")
	}
	users, err := s.users.FindByRole(ctx, r)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return toUserResponses(users), nil
}

func (s *userService) ByDepartment(ctx context.Context, department string) ([]dto.UserResponse, error) {
	users, err := s.users.FindByDepartment(ctx, department)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return toUserResponses(users), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *userService) setPassword(ctx context.Context, user *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return apierror.Internal(err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return s.userErr(err)
	}
	return nil
}

func (s *userService) fetch(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, s.userErr(err)
	}
	return user, nil
}

func (s *userService) userErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("User not found")
	}
	return apierror.Internal(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponses(users []model.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	return resp
}
