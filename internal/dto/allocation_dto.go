package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAllocationRequest struct {
	AssetID        string     `json:"assetId" validate:"required"`
	UserID         string     `json:"userId"  validate:"required"`
	AllocationDate *time.Time `json:"allocationDate"`
	Notes          string     `json:"notes"   validate:"omitempty,max=500"`
}

type UpdateAllocationRequest struct {
	Status     *string    `json:"status"     validate:"omitempty,oneof=active returned pending"`
	ReturnDate *time.Time `json:"returnDate"`
	Notes      *string    `json:"notes"      validate:"omitempty,max=500"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type AllocationFilter struct {
	Status  string `form:"status"  validate:"omitempty,oneof=active returned pending"`
	AssetID string `form:"assetId"`
	UserID  string `form:"userId"`
	PageQuery
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AllocationResponse struct {
	ID             string     `json:"id"`
	Asset          *AssetRef  `json:"asset,omitempty"`
	User           *UserRef   `json:"user,omitempty"`
	AllocationDate time.Time  `json:"allocationDate"`
	ReturnDate     *time.Time `json:"returnDate,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      *UserRef   `json:"createdBy,omitempty"`
	Duration       int        `json:"duration"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type AllocationStats struct {
	TotalAllocations    int64 `json:"totalAllocations" bson:"totalAllocations"`
	ActiveAllocations   int64 `json:"activeAllocations" bson:"activeAllocations"`
	ReturnedAllocations int64 `json:"returnedAllocations" bson:"returnedAllocations"`
	PendingAllocations  int64 `json:"pendingAllocations" bson:"pendingAllocations"`
}
