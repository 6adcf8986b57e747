package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name       string `json:"name"       validate:"required,min=2,max=50"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=6"`
	Role       string `json:"role"       validate:"omitempty,oneof=admin hr employee"`
	Department string `json:"department" validate:"required,max=50"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type UpdateProfileRequest struct {
	Name       *string `json:"name"       validate:"omitempty,min=2,max=50"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,max=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AuthResponse struct {
	User         UserResponse `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}
