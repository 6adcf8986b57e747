package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"triostack/internal/dto"
	"triostack/internal/model"
)

var allocationSortFields = map[string]string{
	"allocationDate": "allocationDate",
	"returnDate":     "returnDate",
	"status":         "status",
	"createdAt":      "createdAt",
	"updatedAt":      "updatedAt",
}

// AllocationRepository defines the data access contract for allocations.
type AllocationRepository interface {
	Create(ctx context.Context, al *model.Allocation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Allocation, error)
	Update(ctx context.Context, al *model.Allocation) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter dto.AllocationFilter) ([]model.Allocation, int64, error)
	FindActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]model.Allocation, error)
	// FindActiveByAsset returns (nil, nil) when the asset has no active
	// allocation; the partial unique index guarantees at most one.
	FindActiveByAsset(ctx context.Context, assetID primitive.ObjectID) (*model.Allocation, error)
	ExistsActive(ctx context.Context, assetID, userID primitive.ObjectID) (bool, error)
	HistoryByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error)
	HistoryByAsset(ctx context.Context, assetID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error)
	Stats(ctx context.Context) (*dto.AllocationStats, error)
}

type allocationRepo struct{ coll *mongo.Collection }

func NewAllocationRepository(coll *mongo.Collection) AllocationRepository {
	return &allocationRepo{coll: coll}
}

func (r *allocationRepo) Create(ctx context.Context, al *model.Allocation) error {
	now := time.Now().UTC()
	al.CreatedAt = now
	al.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, al)
	if err != nil {
		return err
	}
	al.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *allocationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Allocation, error) {
	var al model.Allocation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&al)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &al, nil
}

func (r *allocationRepo) Update(ctx context.Context, al *model.Allocation) error {
	al.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": al.ID}, al)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *allocationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *allocationRepo) List(ctx context.Context, filter dto.AllocationFilter) ([]model.Allocation, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.AssetID != "" {
		id, err := primitive.ObjectIDFromHex(filter.AssetID)
		if err != nil {
			return nil, 0, nil
		}
		query["assetId"] = id
	}
	if filter.UserID != "" {
		id, err := primitive.ObjectIDFromHex(filter.UserID)
		if err != nil {
			return nil, 0, nil
		}
		query["userId"] = id
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sortSpec(allocationSortFields, filter.SortBy, "allocationDate", filter.SortOrder)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var allocations []model.Allocation
	if err := cursor.All(ctx, &allocations); err != nil {
		return nil, 0, err
	}
	return allocations, total, nil
}

func (r *allocationRepo) FindActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]model.Allocation, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID, "status": model.AllocationStatusActive})
	if err != nil {
		return nil, err
	}
	var allocations []model.Allocation
	if err := cursor.All(ctx, &allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *allocationRepo) FindActiveByAsset(ctx context.Context, assetID primitive.ObjectID) (*model.Allocation, error) {
	var al model.Allocation
	err := r.coll.FindOne(ctx, bson.M{"assetId": assetID, "status": model.AllocationStatusActive}).Decode(&al)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &al, nil
}

func (r *allocationRepo) ExistsActive(ctx context.Context, assetID, userID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"assetId": assetID,
		"userId":  userID,
		"status":  model.AllocationStatusActive,
	})
	return n > 0, err
}

func (r *allocationRepo) HistoryByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error) {
	return r.history(ctx, bson.M{"userId": userID}, page, limit)
}

func (r *allocationRepo) HistoryByAsset(ctx context.Context, assetID primitive.ObjectID, page, limit int) ([]model.Allocation, int64, error) {
	return r.history(ctx, bson.M{"assetId": assetID}, page, limit)
}

func (r *allocationRepo) history(ctx context.Context, query bson.M, page, limit int) ([]model.Allocation, int64, error) {
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "allocationDate", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var allocations []model.Allocation
	if err := cursor.All(ctx, &allocations); err != nil {
		return nil, 0, err
	}
	return allocations, total, nil
}

func (r *allocationRepo) Stats(ctx context.Context) (*dto.AllocationStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"totalAllocations": bson.M{"$sum": 1},
			"activeAllocations": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", model.AllocationStatusActive}}, 1, 0},
			}},
			"returnedAllocations": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", model.AllocationStatusReturned}}, 1, 0},
			}},
			"pendingAllocations": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", model.AllocationStatusPending}}, 1, 0},
			}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []dto.AllocationStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	stats := &dto.AllocationStats{}
	if len(results) > 0 {
		*stats = results[0]
	}
	return stats, nil
}
