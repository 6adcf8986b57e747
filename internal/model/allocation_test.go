package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllocationNormalize(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("returned without return date gets now", func(t *testing.T) {
		al := Allocation{Status: AllocationStatusReturned}
		al.Normalize(now)
		if assert.NotNil(t, al.ReturnDate) {
			assert.Equal(t, now, *al.ReturnDate)
		}
	})

	t.Run("returned with explicit return date keeps it", func(t *testing.T) {
		explicit := now.AddDate(0, 0, -3)
		al := Allocation{Status: AllocationStatusReturned, ReturnDate: &explicit}
		al.Normalize(now)
		assert.Equal(t, explicit, *al.ReturnDate)
	})

	t.Run("active clears any return date", func(t *testing.T) {
		stale := now.AddDate(0, 0, -1)
		al := Allocation{Status: AllocationStatusActive, ReturnDate: &stale}
		al.Normalize(now)
		assert.Nil(t, al.ReturnDate)
	})

	t.Run("pending is left untouched", func(t *testing.T) {
		al := Allocation{Status: AllocationStatusPending}
		al.Normalize(now)
		assert.Nil(t, al.ReturnDate)
	})
}

func TestAllocationValidateReturnDate(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	al := Allocation{AllocationDate: start}
	assert.NoError(t, al.ValidateReturnDate())

	after := start.AddDate(0, 0, 7)
	al.ReturnDate = &after
	assert.NoError(t, al.ValidateReturnDate())

	same := start
	al.ReturnDate = &same
	assert.NoError(t, al.ValidateReturnDate(), "return on the allocation day is allowed")

	before := start.AddDate(0, 0, -1)
	al.ReturnDate = &before
	assert.Error(t, al.ValidateReturnDate())
}

func TestAllocationDuration(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 10)

	open := Allocation{AllocationDate: start, Status: AllocationStatusActive}
	assert.Equal(t, 10, open.Duration(now))

	end := start.AddDate(0, 0, 4)
	closed := Allocation{AllocationDate: start, ReturnDate: &end, Status: AllocationStatusReturned}
	assert.Equal(t, 4, closed.Duration(now))

	future := Allocation{AllocationDate: now.AddDate(0, 0, 5)}
	assert.Equal(t, 0, future.Duration(now), "future-dated allocations clamp to zero")
}
