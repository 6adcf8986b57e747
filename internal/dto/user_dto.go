package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateUserRequest struct {
	Name       string `json:"name"       validate:"required,min=2,max=50"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=6"`
	Role       string `json:"role"       validate:"omitempty,oneof=admin hr employee"`
	Department string `json:"department" validate:"required,max=50"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"       validate:"omitempty,min=2,max=50"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	Role       *string `json:"role"       validate:"omitempty,oneof=admin hr employee"`
	Department *string `json:"department" validate:"omitempty,max=50"`
	IsActive   *bool   `json:"isActive"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type UserFilter struct {
	Role       string `form:"role"       validate:"omitempty,oneof=admin hr employee"`
	Department string `form:"department"`
	IsActive   string `form:"isActive"   validate:"omitempty,oneof=true false"`
	Search     string `form:"search"`
	PageQuery
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserRef is the short reference embedded when another document points at a
// user.
type UserRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

type DepartmentStat struct {
	Department  string `json:"department" bson:"_id"`
	Count       int64  `json:"count" bson:"count"`
	ActiveCount int64  `json:"activeCount" bson:"activeCount"`
}

type UserStats struct {
	TotalUsers      int64            `json:"totalUsers" bson:"totalUsers"`
	ActiveUsers     int64            `json:"activeUsers" bson:"activeUsers"`
	InactiveUsers   int64            `json:"inactiveUsers" bson:"inactiveUsers"`
	AdminUsers      int64            `json:"adminUsers" bson:"adminUsers"`
	HRUsers         int64            `json:"hrUsers" bson:"hrUsers"`
	EmployeeUsers   int64            `json:"employeeUsers" bson:"employeeUsers"`
	DepartmentStats []DepartmentStat `json:"departmentStats" bson:"-"`
}
