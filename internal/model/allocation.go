package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"triostack/internal/apierror"
)

type AllocationStatus string

const (
	AllocationStatusActive   AllocationStatus = "active"
	AllocationStatusReturned AllocationStatus = "returned"
	// AllocationStatusPending is declared but reachable through no dedicated
	// operation; it is accepted by the generic update and filters only.
	AllocationStatusPending AllocationStatus = "pending"
)

func (s AllocationStatus) Valid() bool {
	switch s {
	case AllocationStatusActive, AllocationStatusReturned, AllocationStatusPending:
		return true
	}
	return false
}

// Allocation is a time-bounded assignment of one asset to one user.
// At most one allocation per asset may be active at any time.
type Allocation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssetID        primitive.ObjectID `bson:"assetId" json:"assetId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	AllocationDate time.Time          `bson:"allocationDate" json:"allocationDate"`
	ReturnDate     *time.Time         `bson:"returnDate,omitempty" json:"returnDate,omitempty"`
	Status         AllocationStatus   `bson:"status" json:"status"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy      primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize applies the status-driven return date rules before every save:
// a returned allocation gets "now" as its return date when missing, an
// active allocation never carries one.
func (al *Allocation) Normalize(now time.Time) {
	switch al.Status {
	case AllocationStatusReturned:
		if al.ReturnDate == nil {
			t := now
			al.ReturnDate = &t
		}
	case AllocationStatusActive:
		al.ReturnDate = nil
	}
}

// ValidateReturnDate rejects a return date before the allocation date.
func (al *Allocation) ValidateReturnDate() error {
	if al.ReturnDate != nil && al.ReturnDate.Before(al.AllocationDate) {
		return apierror.Validation("Return date must be after or equal to allocation date")
	}
	return nil
}

// Duration is the allocation's length in whole days, using "now" as the
// end for allocations that are still open.
func (al *Allocation) Duration(now time.Time) int {
	end := now
	if al.ReturnDate != nil {
		end = *al.ReturnDate
	}
	days := int((end.Sub(al.AllocationDate) + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
