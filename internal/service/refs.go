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

// parseID converts a hex path/body parameter into an ObjectID.
func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apierror.Validation("Invalid ID format")
	}
	return id, nil
}

func userRef(u *model.User) *dto.UserRef {
	if u == nil {
		return nil
	}
	return &dto.UserRef{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
	}
}

func assetRef(a *model.Asset) *dto.AssetRef {
	if a == nil {
		return nil
	}
	return &dto.AssetRef{
		ID:           a.ID.Hex(),
		Name:         a.Name,
		Type:         string(a.Type),
		Category:     a.Category,
		Status:       string(a.Status),
		SerialNumber: a.SerialNumber,
	}
}

// loadUserRefs batch-fetches the referenced users and returns them keyed by
// id, the Go counterpart of the original's populate('...', 'name email').
func loadUserRefs(ctx context.Context, users repository.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]*dto.UserRef, error) {
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

	found, err := users.FindManyByIDs(ctx, unique)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	refs := make(map[primitive.ObjectID]*dto.UserRef, len(found))
	for i := range found {
		refs[found[i].ID] = userRef(&found[i])
	}
	return refs, nil
}

func toAssetResponse(a *model.Asset, now time.Time, refs map[primitive.ObjectID]*dto.UserRef) dto.AssetResponse {
	resp := dto.AssetResponse{
		ID:              a.ID.Hex(),
		Name:            a.Name,
		Type:            string(a.Type),
		Category:        a.Category,
		Description:     a.Description,
		PurchaseDate:    a.PurchaseDate,
		ExpiryDate:      a.ExpiryDate,
		Status:          string(a.Status),
		Classification:  string(a.Classify(now)),
		DaysUntilExpiry: a.DaysUntilExpiry(now),
		SerialNumber:    a.SerialNumber,
		Cost:            a.Cost,
		Vendor:          a.Vendor,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.AssignedTo != nil {
		resp.AssignedTo = refs[*a.AssignedTo]
	}
	resp.CreatedBy = refs[a.CreatedBy]
	return resp
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
