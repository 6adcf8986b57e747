package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"triostack/internal/apierror"
	"triostack/internal/dto"
	"triostack/internal/model"
	"triostack/internal/repository"
)

// AssetService is the asset lifecycle engine: it owns status derivation,
// date-order validation, expiry classification and the assign/unassign
// operations. Status is recomputed on every write that touches its inputs
// and is never accepted from a request.
type AssetService interface {
	List(ctx context.Context, filter dto.AssetFilter) ([]dto.AssetResponse, *dto.Pagination, error)
	Get(ctx context.Context, id string) (*dto.AssetResponse, error)
	Create(ctx context.Context, req dto.CreateAssetRequest, createdBy string) (*dto.AssetResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateAssetRequest) (*dto.AssetResponse, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*dto.AssetStats, error)
	Expiring(ctx context.Context, days int) ([]dto.AssetResponse, error)
	Expired(ctx context.Context) ([]dto.AssetResponse, error)
	SweepExpired(ctx context.Context) (int64, error)
	Assign(ctx context.Context, id, userID string) (*dto.AssetResponse, error)
	Unassign(ctx context.Context, id string) (*dto.AssetResponse, error)
	ByType(ctx context.Context, assetType string) ([]dto.AssetResponse, error)
	Available(ctx context.Context) ([]dto.AssetResponse, error)
}

type assetService struct {
	assets repository.AssetRepository
	users  repository.UserRepository
}

func NewAssetService(assets repository.AssetRepository, users repository.UserRepository) AssetService {
	return &assetService{assets: assets, users: users}
}

func (s *assetService) List(ctx context.Context, filter dto.AssetFilter) ([]dto.AssetResponse, *dto.Pagination, error) {
	now := time.Now().UTC()
	assets, total, err := s.assets.List(ctx, filter, now)
	if err != nil {
		return nil, nil, apierror.Internal(err)
	}
	resp, err := s.toResponses(ctx, assets, now)
	if err != nil {
		return nil, nil, err
	}
	return resp, dto.NewPagination(filter.Page, filter.Limit, total), nil
}

func (s *assetService) Get(ctx context.Context, id string) (*dto.AssetResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	asset, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, asset)
}

func (s *assetService) Create(ctx context.Context, req dto.CreateAssetRequest, createdBy string) (*dto.AssetResponse, error) {
	creator, err := parseID(createdBy)
	if err != nil {
		return nil, err
	}

	if req.SerialNumber != "" {
		taken, err := s.assets.SerialTaken(ctx, req.SerialNumber, primitive.NilObjectID)
		if err != nil {
			return nil, apierror.Internal(err)
		}
		if taken {
			return nil, apierror.Conflict("Asset with this serial number already exists")
		}
	}

	now := time.Now().UTC()
	asset := &model.Asset{
		Name:         req.Name,
		Type:         model.AssetType(req.Type),
		Category:     req.Category,
		Description:  req.Description,
		PurchaseDate: req.PurchaseDate.UTC(),
		ExpiryDate:   req.ExpiryDate,
		SerialNumber: req.SerialNumber,
		Cost:         req.Cost,
		Vendor:       req.Vendor,
		CreatedBy:    creator,
	}
	if err := asset.ValidateDateOrder(); err != nil {
		return nil, err
	}
	asset.Status = asset.DeriveStatus(now)

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponse(ctx, asset)
}

func (s *assetService) Update(ctx context.Context, id string, req dto.UpdateAssetRequest) (*dto.AssetResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	// Re-fetching gives partial updates the unchanged counterpart date to
	// validate against.
	asset, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}

	if req.SerialNumber != nil && *req.SerialNumber != asset.SerialNumber {
		if *req.SerialNumber != "" {
			taken, err := s.assets.SerialTaken(ctx, *req.SerialNumber, oid)
			if err != nil {
				return nil, apierror.Internal(err)
			}
			if taken {
				return nil, apierror.Conflict("Asset with this serial number already exists")
			}
		}
		asset.SerialNumber = *req.SerialNumber
	}
	if req.Name != nil {
		asset.Name = *req.Name
	}
	if req.Type != nil {
		asset.Type = model.AssetType(*req.Type)
	}
	if req.Category != nil {
		asset.Category = *req.Category
	}
	if req.Description != nil {
		asset.Description = *req.Description
	}
	if req.PurchaseDate != nil {
		asset.PurchaseDate = req.PurchaseDate.UTC()
	}
	if req.ExpiryDate != nil {
		asset.ExpiryDate = req.ExpiryDate
	}
	if req.Cost != nil {
		asset.Cost = *req.Cost
	}
	if req.Vendor != nil {
		asset.Vendor = *req.Vendor
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			asset.AssignedTo = nil
		} else {
			uid, err := parseID(*req.AssignedTo)
			if err != nil {
				return nil, err
			}
			if _, err := s.users.FindByID(ctx, uid); err != nil {
				return nil, s.userErr(err)
			}
			asset.AssignedTo = &uid
		}
	}

	if err := asset.ValidateDateOrder(); err != nil {
		return nil, err
	}
	asset.Status = asset.DeriveStatus(time.Now().UTC())

	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, s.assetErr(err)
	}
	return s.toResponse(ctx, asset)
}

func (s *assetService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	asset, err := s.fetch(ctx, oid)
	if err != nil {
		return err
	}
	// Blocking on the assignment reference rather than the stored status
	// also covers assets that expired while still allocated.
	if asset.AssignedTo != nil {
		return apierror.Conflict("Cannot delete assigned asset. Please return it first.")
	}
	if err := s.assets.Delete(ctx, oid); err != nil {
		return s.assetErr(err)
	}
	return nil
}

func (s *assetService) Stats(ctx context.Context) (*dto.AssetStats, error) {
	stats, err := s.assets.Stats(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	expiring, err := s.assets.CountExpiring(ctx, time.Now().UTC(), 30)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	stats.ExpiringAssets = expiring
	return stats, nil
}

func (s *assetService) Expiring(ctx context.Context, days int) ([]dto.AssetResponse, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now().UTC()
	assets, err := s.assets.FindExpiring(ctx, now, days)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponses(ctx, assets, now)
}

func (s *assetService) Expired(ctx context.Context) ([]dto.AssetResponse, error) {
	now := time.Now().UTC()
	assets, err := s.assets.FindExpired(ctx, now)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponses(ctx, assets, now)
}

func (s *assetService) SweepExpired(ctx context.Context) (int64, error) {
	matched, err := s.assets.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, apierror.Internal(err)
	}
	return matched, nil
}

func (s *assetService) Assign(ctx context.Context, id, userID string) (*dto.AssetResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if asset.DeriveStatus(now) != model.AssetStatusAvailable {
		return nil, apierror.Conflict("Asset is not available for assignment")
	}
	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, s.userErr(err)
	}
	if !user.IsActive {
		return nil, apierror.Conflict("Cannot assign asset to a deactivated user")
	}

	asset.AssignedTo = &uid
	asset.Status = asset.DeriveStatus(now)
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, s.assetErr(err)
	}
	return s.toResponse(ctx, asset)
}

func (s *assetService) Unassign(ctx context.Context, id string) (*dto.AssetResponse, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	asset, err := s.fetch(ctx, oid)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if asset.DeriveStatus(now) != model.AssetStatusAssigned {
		return nil, apierror.Conflict("Asset is not currently assigned")
	}

	asset.AssignedTo = nil
	asset.Status = asset.DeriveStatus(now)
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, s.assetErr(err)
	}
	return s.toResponse(ctx, asset)
}

func (s *assetService) ByType(ctx context.Context, assetType string) ([]dto.AssetResponse, error) {
	t := model.AssetType(assetType)
	if !t.Valid() {
		return nil, apierror.Validation("Invalid asset type")
	}
	assets, err := s.assets.FindByType(ctx, t)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponses(ctx, assets, time.Now().UTC())
}

func (s *assetService) Available(ctx context.Context) ([]dto.AssetResponse, error) {
	assets, err := s.assets.FindAvailable(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return s.toResponses(ctx, assets, time.Now().UTC())
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *assetService) fetch(ctx context.Context, id primitive.ObjectID) (*model.Asset, error) {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return nil, s.assetErr(err)
	}
	return asset, nil
}

func (s *assetService) assetErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("Asset not found")
	}
	return apierror.Internal(err)
}

func (s *assetService) userErr(err error) error {
	if err == repository.ErrNotFound {
		return apierror.NotFound("User not found")
	}
	return apierror.Internal(err)
}

func (s *assetService) toResponse(ctx context.Context, asset *model.Asset) (*dto.AssetResponse, error) {
	resp, err := s.toResponses(ctx, []model.Asset{*asset}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *assetService) toResponses(ctx context.Context, assets []model.Asset, now time.Time) ([]dto.AssetResponse, error) {
	ids := make([]primitive.ObjectID, 0, len(assets)*2)
	for i := range assets {
		ids = append(ids, assets[i].CreatedBy)
		if assets[i].AssignedTo != nil {
			ids = append(ids, *assets[i].AssignedTo)
		}
	}
	refs, err := loadUserRefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AssetResponse, len(assets))
	for i := range assets {
		resp[i] = toAssetResponse(&assets[i], now, refs)
	}
	return resp, nil
}
