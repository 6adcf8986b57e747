package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"triostack/internal/apierror"
	"triostack/internal/dto"
	"triostack/internal/model"
	"triostack/internal/repository"
)

// AllocationService coordinates allocations and their asset side effects.
// Creating an allocation assigns the asset, returning one releases it.
// The "one active allocation per asset" invariant is enforced twice: a
// pre-check for a friendly error, and the partial unique index on
// {assetId, status:"active"} as the authoritative guard under concurrency.
type AllocationService interface {
	List(ctx context.Context, filter dto.AllocationFilter) ([]dto.AllocationResponse, *dto.Pagination, error)
	Get(ctx context.Context, id string) (*dto.AllocationResponse, error)
	Create(ctx context.Context, req dto.CreateAllocationRequest, createdBy string) (*dto.AllocationResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateAllocationRequest) (*dto.AllocationResponse, error)
	Return(ctx context.Context, id string) (*dto.AllocationResponse, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*dto.AllocationStats, error)
	ActiveForUser(ctx context.Context, userID string) ([]dto.AllocationResponse, error)
	ActiveForAsset(ctx context.Context, assetID string) (*dto.AllocationResponse, error)
	HistoryForUser(ctx context.Context, userID string, page, limit int) ([]dto.AllocationResponse, *dto.Pagination, error)
	HistoryForAsset(ctx context.Context, assetID string, page, limit int) ([]dto.AllocationResponse, *dto.Pagination, error)
}

type allocationService struct {
	allocations repository.AllocationRepository
	assets      repository.AssetRepository
	users       repository.UserRepository
	notifier    Notifier
}

func NewAllocationService(
	allocations repository.AllocationRepository,
	assets repository.AssetRepository,
	users repository.UserRepository,
	notifier Notifier,
) AllocationService {
	return &allocationService{
		allocations: allocations,
		assets:      assets,
		users:       users,
		notifier:    notifier,
	}
}

func (s *allocationService) List(ctx context.Context, filter dto.AllocationFilter) ([]dto.AllocationResponse, *dto.Pagination, error) {
	allocations, total, err := s.allocations.List(ctx, filter)
	if err != nil {
		return nil, nil, apierror.Internal(err)
	}
	resp, err := s.toResponses(ctx, allocations)
	if err != nil {
		return nil, nil, err
	}
	return resp, dto.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *allocationService) Get(ctx context.Context, id string) (*dto.AllocationResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	al, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, al)
}

func (s *allocationService) Create(ctx context.Context, req dto.CreateAllocationRequest, createdBy string) (*dto.AllocationResponse, error) {
	assetID, err := parseID(req.AssetID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(req.UserID)
	if err != nil {
		return nil, err
	}
	creator, err := parseID(createdBy)
	if err != nil {
		return nil, err
	}

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, s.assetErr(err)
	}
	now := time.Now().UTC()
	if asset.DeriveStatus(now) != model.AssetStatusAvailable {
		return nil, apierror.Conflict("Asset is not available for allocation")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.userErr(err)
	}
	if !user.IsActive {
		return nil, apierror.Conflict("Cannot allocate asset to a deactivated user")
	}

	exists, err := s.allocations.ExistsActive(ctx, assetID, userID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if exists {
		return nil, apierror.Conflict("User already has an active allocation for this asset")
	}

	al := &model.Allocation{
		AssetID:        assetID,
		UserID:         userID,
		AllocationDate: now,
		Status:         model.AllocationStatusActive,
		Notes:          req.Notes,
		CreatedBy:      creator,
	}
	if req.AllocationDate != nil {
		al.AllocationDate = req.AllocationDate.UTC()
	}
	al.Normalize(now)
	if err := al.ValidateReturnDate(); err != nil {
		return nil, err
	}

	if err := s.allocations.Create(ctx, al); err != nil {
		// Two concurrent creates for the same asset: the index lets only
		// one insert through.
		if mongo.IsDuplicateKeyError(err) {
			return nil, apierror.Conflict("Asset is not available for allocation")
		}
		return nil, apierror.Internal(err)
	}

	asset.AssignedTo = &userID
	asset.Status = asset.DeriveStatus(now)
	if err := s.assets.Update(ctx, asset); err != nil {
		// Undo the insert so the asset is not locked by a half-applied
		// allocation.
		if delErr := s.allocations.Delete(ctx, al.ID); delErr != nil {
			log.Error().Err(delErr).
				Str("allocationId", al.ID.Hex()).
				Msg("failed to undo allocation after asset update failure")
		}
		return nil, apierror.Internal(err)
	}

	s.notify(func() error { return s.notifier.NotifyAssignment(ctx, asset, user) })
	return s.toResponse(ctx, al)
}

func (s *allocationService) Update(ctx context.Context, id string, req dto.UpdateAllocationRequest) (*dto.AllocationResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	al, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}

	prevStatus := al.Status
	if req.Status != nil {
		al.Status = model.AllocationStatus(*req.Status)
	}
	if req.ReturnDate != nil {
		al.ReturnDate = req.ReturnDate
	}
	if req.Notes != nil {
		al.Notes = *req.Notes
	}

	now := time.Now().UTC()
	al.Normalize(now)
	if err := al.ValidateReturnDate(); err != nil {
		return nil, err
	}

	if err := s.allocations.Update(ctx, al); err != nil {
		// Reactivating while another allocation holds the asset trips the
		// same index as a concurrent create.
		if mongo.IsDuplicateKeyError(err) {
			return nil, apierror.Conflict("Asset already has an active allocation")
		}
		return nil, s.allocationErr(err)
	}

	if al.Status != prevStatus {
		if err := s.syncAsset(ctx, al, now); err != nil {
			return nil, err
		}
	}
	return s.toResponse(ctx, al)
}

func (s *allocationService) Return(ctx context.Context, id string) (*dto.AllocationResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	al, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}
	if al.Status != model.AllocationStatusActive {
		return nil, apierror.Conflict("Allocation is not active")
	}

	now := time.Now().UTC()
	al.Status = model.AllocationStatusReturned
	al.Normalize(now)

	if err := s.allocations.Update(ctx, al); err != nil {
		return nil, s.allocationErr(err)
	}
	if err := s.syncAsset(ctx, al, now); err != nil {
		return nil, err
	}

	if asset, err := s.assets.FindByID(ctx, al.AssetID); err == nil {
		if user, err := s.users.FindByID(ctx, al.UserID); err == nil {
			s.notify(func() error { return s.notifier.NotifyReturn(ctx, asset, user) })
		}
	}
	return s.toResponse(ctx, al)
}

// Delete removes an allocation record. Deleting an active allocation
// implicitly returns the asset first so no dangling assignment survives.
func (s *allocationService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	al, err := s.fetch(ctx, oid)
	if err != nil {
		return err
	}

	if al.Status == model.AllocationStatusActive {
		al.Status = model.AllocationStatusReturned
		if err := s.syncAsset(ctx, al, time.Now().UTC()); err != nil {
			return err
		}
	}
	if err := s.allocations.Delete(ctx, oid); err != nil {
		return s.allocationErr(err)
	}
	return nil
}

func (s *allocationService) Stats(ctx context.Context) (*dto.AllocationStats, error) {
	stats, err := s.allocations.Stats(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return stats, nil
}

func (s *allocationService) ActiveForUser(ctx context.Context, userID string) ([]dto.AllocationResponse, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocations.FindActiveByUser(ctx, uid)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponses(ctx, allocations)
}

func (s *allocationService) ActiveForAsset(ctx context.Context, assetID string) (*dto.AllocationResponse, error) {
	aid, err := parseID(assetID)
	if err != nil {
		return nil, err
	}
	al, err := s.allocations.FindActiveByAsset(ctx, aid)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if al == nil {
		return nil, apierror.NotFound("No active allocation for this asset")
	}
	return s.toResponse(ctx, al)
}

func (s *allocationService) HistoryForUser(ctx context.Context, userID string, page, limit int) ([]dto.AllocationResponse, *dto.Pagination, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, nil, err
	}
	allocations, total, err := s.allocations.HistoryByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, nil, apierror.Internal(err)
	}
	resp, err := s.toResponses(ctx, allocations)
	if err != nil {
		return nil, nil, err
	}
	return resp, dto.NewPagination(page, limit, total), nil
}

func (s *allocationService) HistoryForAsset(ctx context.Context, assetID string, page, limit int) ([]dto.AllocationResponse, *dto.Pagination, error) {
	aid, err := parseID(assetID)
	if err != nil {
		return nil, nil, err
	}
	allocations, total, err := s.allocations.HistoryByAsset(ctx, aid, page, limit)
	if err != nil {
		return nil, nil, apierror.Internal(err)
	}
	resp, err := s.toResponses(ctx, allocations)
	if err != nil {
		return nil, nil, err
	}
	return resp, dto.NewPagination(page, limit, total), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// syncAsset mirrors the allocation's status onto its asset: active sets the
// assignment, anything else clears it when this allocation's user holds it.
func (s *allocationService) syncAsset(ctx context.Context, al *model.Allocation, now time.Time) error {
	asset, err := s.assets.FindByID(ctx, al.AssetID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil
		}
		return apierror.Internal(err)
	}

	switch al.Status {
	case model.AllocationStatusActive:
		uid := al.UserID
		asset.AssignedTo = &uid
	default:
		if asset.AssignedTo == nil || *asset.AssignedTo != al.UserID {
			return nil
		}
		asset.AssignedTo = nil
	}
	asset.Status = asset.DeriveStatus(now)
	if err := s.assets.Update(ctx, asset); err != nil {
		return apierror.Internal(err)
	}
	return nil
}

func (s *allocationService) notify(fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		log.Error().Err(err).Msg("failed to enqueue allocation notification")
	}
}

func (s *allocationService) fetch(ctx context.Context, id primitive.ObjectID) (*model.Allocation, error) {
	al, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		return nil, s.allocationErr(err)
	}
	return al, nil
}

func (s *allocationService) allocationErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("Allocation not found")
	}
	return apierror.Internal(err)
}

func (s *allocationService) assetErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("Asset not found")
	}
	return apierror.Internal(err)
}

func (s *allocationService) userErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("User not found")
	}
	return apierror.Internal(err)
}

func (s *allocationService) toResponse(ctx context.Context, al *model.Allocation) (*dto.AllocationResponse, error) {
	resp, err := s.toResponses(ctx, []model.Allocation{*al})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *allocationService) toResponses(ctx context.Context, allocations []model.Allocation) ([]dto.AllocationResponse, error) {
	userIDs := make([]primitive.ObjectID, 0, len(allocations)*2)
	assetIDs := make([]primitive.ObjectID, 0, len(allocations))
	for i := range allocations {
		userIDs = append(userIDs, allocations[i].UserID, allocations[i].CreatedBy)
		assetIDs = append(assetIDs, allocations[i].AssetID)
	}

	userRefs, err := loadUserRefs(ctx, s.users, userIDs)
	if err != nil {
		return nil, err
	}
	assetRefs, err := s.loadAssetRefs(ctx, assetIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	resp := make([]dto.AllocationResponse, len(allocations))
	for i := range allocations {
		al := &allocations[i]
		resp[i] = dto.AllocationResponse{
			ID:             al.ID.Hex(),
			Asset:          assetRefs[al.AssetID],
			User:           userRefs[al.UserID],
			AllocationDate: al.AllocationDate,
			ReturnDate:     al.ReturnDate,
			Status:         string(al.Status),
			Notes:          al.Notes,
			CreatedBy:      userRefs[al.CreatedBy],
			Duration:       al.Duration(now),
			CreatedAt:      al.CreatedAt,
			UpdatedAt:      al.UpdatedAt,
		}
	}
	return resp, nil
}

func (s *allocationService) loadAssetRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*dto.AssetRef, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	found, err := s.assets.FindManyByIDs(ctx, unique)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	refs := make(map[primitive.ObjectID]*dto.AssetRef, len(found))
	for i := range found {
		refs[found[i].ID] = assetRef(&found[i])
	}
	return refs, nil
}
