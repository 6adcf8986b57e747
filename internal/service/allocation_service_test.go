package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"triostack/internal/apierror"
	"triostack/internal/dto"
	"triostack/internal/model"
)

type allocationFixture struct {
	allocations *stubAllocationRepo
	assets      *stubAssetRepo
	users       *stubUserRepo
	notifier    *stubNotifier
	svc         AllocationService

	adminID    primitive.ObjectID
	employeeID primitive.ObjectID
	assetID    primitive.ObjectID
}

func newAllocationFixture() *allocationFixture {
	f := &allocationFixture{
		allocations: newStubAllocationRepo(),
		assets:      newStubAssetRepo(),
		users:       newStubUserRepo(),
		notifier:    &stubNotifier{},
	}
	f.adminID = f.users.seed(model.User{
		Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true,
	})
	f.employeeID = f.users.seed(model.User{
		Name: "Jordan", Email: "jordan@example.com", Role: model.RoleEmployee, IsActive: true,
	})
	f.assetID = f.assets.seed(model.Asset{
		Name:         "Laptop",
		Type:         model.AssetTypeHardware,
		PurchaseDate: time.Now().UTC().AddDate(-1, 0, 0),
		Status:       model.AssetStatusAvailable,
	})
	f.svc = NewAllocationService(f.allocations, f.assets, f.users, f.notifier)
	return f
}

func (f *allocationFixture) create(t *testing.T) *dto.AllocationResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), dto.CreateAllocationRequest{
		AssetID: f.assetID.Hex(),
		UserID:  f.employeeID.Hex(),
	}, f.adminID.Hex())
	require.NoError(t, err)
	return resp
}

func TestAllocationCreate(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()

	resp := f.create(t)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.Asset)
	assert.Equal(t, "Laptop", resp.Asset.Name)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Jordan", resp.User.Name)

	// Side effect: the asset is now assigned to the allocation's user
	asset := f.assets.assets[f.assetID]
	require.NotNil(t, asset.AssignedTo)
	assert.Equal(t, f.employeeID, *asset.AssignedTo)
	assert.Equal(t, model.AssetStatusAssigned, asset.Status)

	// Assignment notification went out
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "assignment", f.notifier.calls[0].kind)

	t.Run("second allocation for the same asset conflicts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, dto.CreateAllocationRequest{
			AssetID: f.assetID.Hex(),
			UserID:  f.employeeID.Hex(),
		}, f.adminID.Hex())
		require.Error(t, err)
		assert.Equal(t, apierror.KindConflict, apierror.AsError(err).Kind)
	})
}

func TestAllocationCreateAssetNotAvailable(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	f.assets.assets[f.assetID].ExpiryDate = datePtr(time.Now().UTC().AddDate(0, -1, 0))

	_, err := f.svc.Create(ctx, dto.CreateAllocationRequest{
		AssetID: f.assetID.Hex(),
		UserID:  f.employeeID.Hex(),
	}, f.adminID.Hex())
	require.Error(t, err)
	assert.Equal(t, "Asset is not available for allocation", apierror.AsError(err).Message)
	assert.Empty(t, f.allocations.allocations)
}

func TestAllocationCreateRaceLosesCleanly(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()

	// Another active allocation slipped in between the pre-check and the
	// insert; stub Create raises the index's duplicate key error.
	other := f.users.seed(model.User{Name: "Rival", Email: "rival@example.com", Role: model.RoleEmployee, IsActive: true})
	f.allocations.allocations = append(f.allocations.allocations, &model.Allocation{
		ID:             primitive.NewObjectID(),
		AssetID:        f.assetID,
		UserID:         other,
		AllocationDate: time.Now().UTC(),
		Status:         model.AllocationStatusActive,
	})

	_, err := f.svc.Create(ctx, dto.CreateAllocationRequest{
		AssetID: f.assetID.Hex(),
		UserID:  f.employeeID.Hex(),
	}, f.adminID.Hex())
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.AsError(err).Kind)
	assert.Len(t, f.allocations.allocations, 1, "only the winner's allocation remains")
}

func TestAllocationCreateCompensatesFailedAssetUpdate(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	f.assets.failUpdate = errors.New("connection reset")

	_, err := f.svc.Create(ctx, dto.CreateAllocationRequest{
		AssetID: f.assetID.Hex(),
		UserID:  f.employeeID.Hex(),
	}, f.adminID.Hex())
	require.Error(t, err)
	assert.Equal(t, apierror.KindInternal, apierror.AsError(err).Kind)

	// The inserted allocation was rolled back and the asset is untouched
	assert.Empty(t, f.allocations.allocations)
	assert.Nil(t, f.assets.assets[f.assetID].AssignedTo)
	assert.Empty(t, f.notifier.calls)
}

func TestAllocationReturn(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	created := f.create(t)

	resp, err := f.svc.Return(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "returned", resp.Status)
	require.NotNil(t, resp.ReturnDate)

	// Side effect: the asset is released
	asset := f.assets.assets[f.assetID]
	assert.Nil(t, asset.AssignedTo)
	assert.Equal(t, model.AssetStatusAvailable, asset.Status)

	t.Run("returning twice conflicts", func(t *testing.T) {
		_, err := f.svc.Return(ctx, created.ID)
		require.Error(t, err)
		assert.Equal(t, "Allocation is not active", apierror.AsError(err).Message)
	})
}

func TestAllocationReturnOfExpiredAsset(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	created := f.create(t)

	// The asset expires while still allocated
	f.assets.assets[f.assetID].ExpiryDate = datePtr(time.Now().UTC().AddDate(0, 0, -1))

	_, err := f.svc.Return(ctx, created.ID)
	require.NoError(t, err)

	asset := f.assets.assets[f.assetID]
	assert.Nil(t, asset.AssignedTo)
	assert.Equal(t, model.AssetStatusExpired, asset.Status,
		"an expired asset ends expired, not available")
}

func TestAllocationDeleteImplicitlyReturns(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	created := f.create(t)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	assert.Empty(t, f.allocations.allocations)
	asset := f.assets.assets[f.assetID]
	assert.Nil(t, asset.AssignedTo)
	assert.Equal(t, model.AssetStatusAvailable, asset.Status)
}

func TestAllocationUpdateStatusSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	created := f.create(t)

	returned := "returned"
	resp, err := f.svc.Update(ctx, created.ID, dto.UpdateAllocationRequest{Status: &returned})
	require.NoError(t, err)
	assert.Equal(t, "returned", resp.Status)
	require.NotNil(t, resp.ReturnDate)
	assert.Nil(t, f.assets.assets[f.assetID].AssignedTo)

	t.Run("reactivation re-assigns the asset", func(t *testing.T) {
		active := "active"
		resp, err := f.svc.Update(ctx, created.ID, dto.UpdateAllocationRequest{Status: &active})
		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		assert.Nil(t, resp.ReturnDate)
		require.NotNil(t, f.assets.assets[f.assetID].AssignedTo)
		assert.Equal(t, f.employeeID, *f.assets.assets[f.assetID].AssignedTo)
	})

	t.Run("reactivation conflicts when another allocation holds the asset", func(t *testing.T) {
		// Close the current one, open a rival active allocation
		returned := "returned"
		_, err := f.svc.Update(ctx, created.ID, dto.UpdateAllocationRequest{Status: &returned})
		require.NoError(t, err)

		rival := f.users.seed(model.User{Name: "Rival", Email: "r2@example.com", Role: model.RoleEmployee, IsActive: true})
		_, err = f.svc.Create(ctx, dto.CreateAllocationRequest{
			AssetID: f.assetID.Hex(),
			UserID:  rival.Hex(),
		}, f.adminID.Hex())
		require.NoError(t, err)

		active := "active"
		_, err = f.svc.Update(ctx, created.ID, dto.UpdateAllocationRequest{Status: &active})
		require.Error(t, err)
		assert.Equal(t, apierror.KindConflict, apierror.AsError(err).Kind)
	})
}

func TestAllocationHistoryPagination(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()
	base := time.Now().UTC().AddDate(0, 0, -30)

	for i := 0; i < 25; i++ {
		end := base.AddDate(0, 0, i).Add(12 * time.Hour)
		f.allocations.allocations = append(f.allocations.allocations, &model.Allocation{
			ID:             primitive.NewObjectID(),
			AssetID:        f.assetID,
			UserID:         f.employeeID,
			AllocationDate: base.AddDate(0, 0, i),
			ReturnDate:     &end,
			Status:         model.AllocationStatusReturned,
			CreatedBy:      f.adminID,
		})
	}

	page, pagination, err := f.svc.HistoryForUser(ctx, f.employeeID.Hex(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, page, 10)
	assert.Equal(t, int64(25), pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	// Newest first: page 2 starts at the 11th most recent
	assert.Equal(t, base.AddDate(0, 0, 14), page[0].AllocationDate)
}

func TestAllocationActiveForAsset(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture()

	_, err := f.svc.ActiveForAsset(ctx, f.assetID.Hex())
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.AsError(err).Kind)

	created := f.create(t)
	resp, err := f.svc.ActiveForAsset(ctx, f.assetID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
}
