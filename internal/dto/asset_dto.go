package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAssetRequest struct {
	Name         string     `json:"name"         validate:"required,min=2,max=100"`
	Type         string     `json:"type"         validate:"required,oneof=hardware software domain hosting license equipment vehicle"`
	Category     string     `json:"category"     validate:"required,max=50"`
	Description  string     `json:"description"  validate:"omitempty,max=500"`
	PurchaseDate time.Time  `json:"purchaseDate" validate:"required"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	SerialNumber string     `json:"serialNumber" validate:"omitempty,max=100"`
	Cost         float64    `json:"cost"         validate:"omitempty,gte=0"`
	Vendor       string     `json:"vendor"       validate:"omitempty,max=100"`
}

// UpdateAssetRequest is a partial update. Status is deliberately absent —
// it is derived. AssignedTo accepts a user id, or "" to clear.
type UpdateAssetRequest struct {
	Name         *string    `json:"name"         validate:"omitempty,min=2,max=100"`
	Type         *string    `json:"type"         validate:"omitempty,oneof=hardware software domain hosting license equipment vehicle"`
	Category     *string    `json:"category"     validate:"omitempty,max=50"`
	Description  *string    `json:"description"  validate:"omitempty,max=500"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	AssignedTo   *string    `json:"assignedTo"`
	SerialNumber *string    `json:"serialNumber" validate:"omitempty,max=100"`
	Cost         *float64   `json:"cost"         validate:"omitempty,gte=0"`
	Vendor       *string    `json:"vendor"       validate:"omitempty,max=100"`
}

type AssignAssetRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type AssetFilter struct {
	Type           string `form:"type"           validate:"omitempty,oneof=hardware software domain hosting license equipment vehicle"`
	Status         string `form:"status"         validate:"omitempty,oneof=available assigned expired"`
	Classification string `form:"classification" validate:"omitempty,oneof=upcoming ongoing expired"`
	Category       string `form:"category"`
	AssignedTo     string `form:"assignedTo"`
	Search         string `form:"search"`
	PageQuery
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// AssetRef is the short reference embedded in allocation responses.
type AssetRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

type AssetResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Category       string     `json:"category"`
	Description    string     `json:"description,omitempty"`
	PurchaseDate   time.Time  `json:"purchaseDate"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	Status         string     `json:"status"`
	Classification string     `json:"classification"`
	DaysUntilExpiry *int      `json:"daysUntilExpiry,omitempty"`
	AssignedTo     *UserRef   `json:"assignedTo,omitempty"`
	SerialNumber   string     `json:"serialNumber,omitempty"`
	Cost           float64    `json:"cost,omitempty"`
	Vendor         string     `json:"vendor,omitempty"`
	CreatedBy      *UserRef   `json:"createdBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type AssetStats struct {
	TotalAssets     int64 `json:"totalAssets" bson:"totalAssets"`
	AvailableAssets int64 `json:"availableAssets" bson:"availableAssets"`
	AssignedAssets  int64 `json:"assignedAssets" bson:"assignedAssets"`
	ExpiringAssets  int64 `json:"expiringAssets" bson:"-"`
}
