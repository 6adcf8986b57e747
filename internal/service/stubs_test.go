package service

// In-memory repository stubs shared by the service tests. They enforce the
// same invariants the Mongo layer does — notably the partial unique index on
// active allocations, simulated via a duplicate key error — so concurrency
// conflict paths can be exercised without a database.

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"triostack/internal/dto"
	"triostack/internal/model"
	"triostack/internal/repository"
)

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

// ── Users ────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[primitive.ObjectID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[primitive.ObjectID]*model.User)}
}

func (r *stubUserRepo) seed(u model.User) primitive.ObjectID {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = &u
	return u.ID
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cloned := *u
	return &cloned, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cloned := *u
			return &cloned, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) EmailTaken(_ context.Context, email string, exclude primitive.ObjectID) (bool, error) {
	for _, u := range r.users {
		if u.Email == email && u.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) List(_ context.Context, filter dto.UserFilter) ([]model.User, int64, error) {
	var matched []model.User
	for _, u := range r.users {
		if filter.Role != "" && string(u.Role) != filter.Role {
			continue
		}
		if filter.Department != "" && u.Department != filter.Department {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, filter.Page, filter.Limit)
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) FindByRole(_ context.Context, role model.Role) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByDepartment(_ context.Context, department string) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Department == department {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindManyByIDs(_ context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ActiveAdmins(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == model.RoleAdmin && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Stats(_ context.Context) (*dto.UserStats, error) {
	stats := &dto.UserStats{}
	for _, u := range r.users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		switch u.Role {
		case model.RoleAdmin:
			stats.AdminUsers++
		case model.RoleHR:
			stats.HRUsers++
		default:
			stats.EmployeeUsers++
		}
	}
	return stats, nil
}

// ── Assets ───────────────────────────────────────────────────────────────────

type stubAssetRepo struct {
	assets map[primitive.ObjectID]*model.Asset
	// failUpdate makes the next Update call fail, for compensation paths.
	failUpdate error
}

func newStubAssetRepo() *stubAssetRepo {
	return &stubAssetRepo{assets: make(map[primitive.ObjectID]*model.Asset)}
}

func (r *stubAssetRepo) seed(a model.Asset) primitive.ObjectID {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.assets[a.ID] = &a
	return a.ID
}

func (r *stubAssetRepo) Create(_ context.Context, a *model.Asset) error {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	cloned := *a
	r.assets[a.ID] = &cloned
	return nil
}

func (r *stubAssetRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cloned := *a
	return &cloned, nil
}

func (r *stubAssetRepo) Update(_ context.Context, a *model.Asset) error {
	if r.failUpdate != nil {
		err := r.failUpdate
		r.failUpdate = nil
		return err
	}
	if _, ok := r.assets[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	cloned := *a
	r.assets[a.ID] = &cloned
	return nil
}

func (r *stubAssetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.assets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *stubAssetRepo) SerialTaken(_ context.Context, serial string, exclude primitive.ObjectID) (bool, error) {
	for _, a := range r.assets {
		if a.SerialNumber == serial && a.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAssetRepo) List(_ context.Context, filter dto.AssetFilter, now time.Time) ([]model.Asset, int64, error) {
	var matched []model.Asset
	for _, a := range r.assets {
		if filter.Type != "" && string(a.Type) != filter.Type {
			continue
		}
		if filter.Status != "" && string(a.DeriveStatus(now)) != filter.Status {
			continue
		}
		matched = append(matched, *a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, filter.Page, filter.Limit)
}

func (r *stubAssetRepo) FindAll(_ context.Context) ([]model.Asset, error) {
	var out []model.Asset
	for _, a := range r.assets {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubAssetRepo) FindManyByIDs(_ context.Context, ids []primitive.ObjectID) ([]model.Asset, error) {
	var out []model.Asset
	for _, id := range ids {
		if a, ok := r.assets[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAssetRepo) FindByType(_ context.Context, t model.AssetType) ([]model.Asset, error) {
	var out []model.Asset
	for _, a := range r.assets {
		if a.Type == t {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAssetRepo) FindAvailable(_ context.Context) ([]model.Asset, error) {
	var out []model.Asset
	for _, a := range r.assets {
		if a.Status == model.AssetStatusAvailable {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAssetRepo) FindExpiring(_ context.Context, now time.Time, days int) ([]model.Asset, error) {
	limit := now.AddDate(0, 0, days)
	var out []model.Asset
	for _, a := range r.assets {
		if a.ExpiryDate == nil {
			continue
		}
		if !a.ExpiryDate.Before(now) && !a.ExpiryDate.After(limit) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAssetRepo) FindExpired(_ context.Context, now time.Time) ([]model.Asset, error) {
	var out []model.Asset
	for _, a := range r.assets {
		if a.ExpiryDate != nil && a.ExpiryDate.Before(now) && a.Status != model.AssetStatusExpired {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAssetRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	var matched int64
	for _, a := range r.assets {
		if a.ExpiryDate != nil && a.ExpiryDate.Before(now) && a.Status != model.AssetStatusExpired {
			a.Status = model.AssetStatusExpired
			a.UpdatedAt = now
			matched++
		}
	}
	return matched, nil
}

func (r *stubAssetRepo) CountExpiring(ctx context.Context, now time.Time, days int) (int64, error) {
	out, err := r.FindExpiring(ctx, now, days)
	return int64(len(out)), err
}

func (r *stubAssetRepo) Stats(_ context.Context) (*dto.AssetStats, error) {
	stats := &dto.AssetStats{}
	for _, a := range r.assets {
		stats.TotalAssets++
		switch a.Status {
		case model.AssetStatusAvailable:
			stats.AvailableAssets++
		case model.AssetStatusAssigned:
			stats.AssignedAssets++
		}
	}
	return stats, nil
}

// ── Allocations ──────────────────────────────────────────────────────────────

type stubAllocationRepo struct {
	allocations []*model.Allocation
}

func newStubAllocationRepo() *stubAllocationRepo { return &stubAllocationRepo{} }

func (r *stubAllocationRepo) find(id primitive.ObjectID) *model.Allocation {
	for _, al := range r.allocations {
		if al.ID == id {
			return al
		}
	}
	return nil
}

// hasOtherActive mirrors the partial unique index on {assetId, status:"active"}.
func (r *stubAllocationRepo) hasOtherActive(assetID, exclude primitive.ObjectID) bool {
	for _, al := range r.allocations {
		if al.AssetID == assetID && al.Status == model.AllocationStatusActive && al.ID != exclude {
			return true
		}
	}
	return false
}

func (r *stubAllocationRepo) Create(_ context.Context, al *model.Allocation) error {
	if al.Status == model.AllocationStatusActive && r.hasOtherActive(al.AssetID, primitive.NilObjectID) {
		return duplicateKeyErr()
	}
	al.ID = primitive.NewObjectID()
	al.CreatedAt = time.Now().UTC()
	al.UpdatedAt = al.CreatedAt
	cloned := *al
	r.allocations = append(r.allocations, &cloned)
	return nil
}

func (r *stubAllocationRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Allocation, error) {
	al := r.find(id)
	if al == nil {
		return nil, repository.ErrNotFound
	}
	cloned := *al
	return &cloned, nil
}

func (r *stubAllocationRepo) Update(_ context.Context, al *model.Allocation) error {
	existing := r.find(al.ID)
	if existing == nil {
		return repository.ErrNotFound
	}
	if al.Status == model.AllocationStatusActive && r.hasOtherActive(al.AssetID, al.ID) {
		return duplicateKeyErr()
	}
	al.UpdatedAt = time.Now().UTC()
	*existing = *al
	return nil
}

func (r *stubAllocationRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, al := range r.allocations {
		if al.ID == id {
			r.allocations = append(r.allocations[:i], r.allocations[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *stubAllocationRepo) List(_ context.Context, filter dto.AllocationFilter) ([]model.Allocation, int64, error) {
	var matched []model.Allocation
	for _, al := range r.allocations {
		if filter.Status != "" && string(al.Status) != filter.Status {
			continue
		}
		matched = append(matched, *al)
	}
	return paginate(matched, filter.Page, filter.Limit)
}

func (r *stubAllocationRepo) FindActiveByUser(_ context.Context, userID primitive.ObjectID) ([]model.Allocation, error) {
	var out []model.Allocation
	for _, al := range r.allocations {
		if al.UserID == userID && al.Status == model.AllocationStatusActive {
			out = append(out, *al)
		}
	}
	return out, nil
}

func (r *stubAllocationRepo) FindActiveByAsset(_ context.Context, assetID primitive.ObjectID) (*model.Allocation, error) {
	for _, al := range r.allocations {
		if al.AssetID == assetID && al.Status == model.AllocationStatusActive {
			cloned := *al
			return &cloned, nil
		}
	}
	return nil, nil
}

func (r *stubAllocationRepo) ExistsActive(_ context.Context, assetID, userID primitive.ObjectID) (bool, error) {
	for _, al := range r.allocations {
		if al.AssetID == assetID && al.UserID == userID && al.Status == model.AllocationStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAllocationRepo) HistoryByUser(_ context.Context, userID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error) {
	var matched []model.Allocation
	for _, al := range r.allocations {
		if al.UserID == userID {
			matched = append(matched, *al)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].AllocationDate.After(matched[j].AllocationDate)
	})
	return paginate(matched, page, limit)
}

func (r *stubAllocationRepo) HistoryByAsset(_ context.Context, assetID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error) {
	var matched []model.Allocation
	for _, al := range r.allocations {
		if al.AssetID == assetID {
			matched = append(matched, *al)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].AllocationDate.After(matched[j].AllocationDate)
	})
	return paginate(matched, page, limit)
}

func (r *stubAllocationRepo) Stats(_ context.Context) (*dto.AllocationStats, error) {
	stats := &dto.AllocationStats{}
	for _, al := range r.allocations {
		stats.TotalAllocations++
		switch al.Status {
		case model.AllocationStatusActive:
			stats.ActiveAllocations++
		case model.AllocationStatusReturned:
			stats.ReturnedAllocations++
		case model.AllocationStatusPending:
			stats.PendingAllocations++
		}
	}
	return stats, nil
}

// ── Notifier ─────────────────────────────────────────────────────────────────

type notifierCall struct {
	kind  string
	asset string
	user  string
	days  int
}

type stubNotifier struct {
	calls []notifierCall
}

func (n *stubNotifier) NotifyExpiring(_ context.Context, days int) error {
	n.calls = append(n.calls, notifierCall{kind: "expiring", days: days})
	return nil
}

func (n *stubNotifier) NotifyExpired(_ context.Context) error {
	n.calls = append(n.calls, notifierCall{kind: "expired"})
	return nil
}

func (n *stubNotifier) NotifyAssignment(_ context.Context, asset *model.Asset, user *model.User) error {
	n.calls = append(n.calls, notifierCall{kind: "assignment", asset: asset.Name, user: user.Name})
	return nil
}

func (n *stubNotifier) NotifyReturn(_ context.Context, asset *model.Asset, user *model.User) error {
	n.calls = append(n.calls, notifierCall{kind: "return", asset: asset.Name, user: user.Name})
	return nil
}

// ── Shared helpers ───────────────────────────────────────────────────────────

func paginate[T any](items []T, page, limit int) ([]T, int64, error) {
	total := int64(len(items))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
