package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"triostack/internal/apierror"
)

type AssetType string

const (
	AssetTypeHardware  AssetType = "hardware"
	AssetTypeSoftware  AssetType = "software"
	AssetTypeDomain    AssetType = "domain"
	AssetTypeHosting   AssetType = "hosting"
	AssetTypeLicense   AssetType = "license"
	AssetTypeEquipment AssetType = "equipment"
	AssetTypeVehicle   AssetType = "vehicle"
)

func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeHardware, AssetTypeSoftware, AssetTypeDomain, AssetTypeHosting,
		AssetTypeLicense, AssetTypeEquipment, AssetTypeVehicle:
		return true
	}
	return false
}

// AssetStatus is derived, never independently settable: expiry wins over
// assignment, assignment wins over availability. See Asset.DeriveStatus.
type AssetStatus string

const (
	AssetStatusAvailable AssetStatus = "available"
	AssetStatusAssigned  AssetStatus = "assigned"
	AssetStatusExpired   AssetStatus = "expired"
)

// Classification is a read-only time bucket for dashboard segmentation,
// independent of the authoritative status. An asset can be status=assigned
// yet classification=expired if its expiry passed while still allocated.
type Classification string

const (
	ClassificationUpcoming Classification = "upcoming"
	ClassificationOngoing  Classification = "ongoing"
	ClassificationExpired  Classification = "expired"
)

// Asset is a trackable organizational resource with expiry semantics.
type Asset struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Type         AssetType           `bson:"type" json:"type"`
	Category     string              `bson:"category" json:"category"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	PurchaseDate time.Time           `bson:"purchaseDate" json:"purchaseDate"`
	ExpiryDate   *time.Time          `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	Status       AssetStatus         `bson:"status" json:"status"`
	AssignedTo   *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	SerialNumber string              `bson:"serialNumber,omitempty" json:"serialNumber,omitempty"`
	Cost         float64             `bson:"cost,omitempty" json:"cost,omitempty"`
	Vendor       string              `bson:"vendor,omitempty" json:"vendor,omitempty"`
	CreatedBy    primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// DeriveStatus computes the authoritative status from the asset's expiry
// and assignment state. The expired check runs first and overrides
// assignment.
func (a *Asset) DeriveStatus(now time.Time) AssetStatus {
	if a.ExpiryDate != nil && a.ExpiryDate.Before(now) {
		return AssetStatusExpired
	}
	if a.AssignedTo != nil {
		return AssetStatusAssigned
	}
	return AssetStatusAvailable
}

// ValidateDateOrder rejects an expiry date that is not strictly after the
// purchase date. Runs on every save and on partial updates after the
// unchanged counterpart field has been re-fetched.
func (a *Asset) ValidateDateOrder() error {
	if a.ExpiryDate != nil && !a.ExpiryDate.After(a.PurchaseDate) {
		return apierror.Validation("Expiry date must be after purchase date")
	}
	return nil
}

// Classify buckets the asset by time: expired if the expiry passed,
// upcoming if the purchase date is in the future, ongoing otherwise
// (including assets with no expiry date).
func (a *Asset) Classify(now time.Time) Classification {
	if a.ExpiryDate != nil && a.ExpiryDate.Before(now) {
		return ClassificationExpired
	}
	if a.PurchaseDate.After(now) {
		return ClassificationUpcoming
	}
	return ClassificationOngoing
}

// DaysUntilExpiry returns the whole days (rounded up) until the expiry
// date, negative once passed, or nil when the asset has no expiry.
func (a *Asset) DaysUntilExpiry(now time.Time) *int {
	if a.ExpiryDate == nil {
		return nil
	}
	d := a.ExpiryDate.Sub(now)
	days := int(d / (24 * time.Hour))
	// Integer division truncates toward zero, which is already the ceiling
	// for negative durations; positive remainders still need rounding up.
	if d%(24*time.Hour) > 0 {
		days++
	}
	return &days
}
