package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"triostack/internal/dto"
	"triostack/internal/model"
)

var assetSortFields = map[string]string{
	"name":         "name",
	"type":         "type",
	"category":     "category",
	"status":       "status",
	"purchaseDate": "purchaseDate",
	"expiryDate":   "expiryDate",
	"cost":         "cost",
	"vendor":       "vendor",
	"createdAt":    "createdAt",
	"updatedAt":    "updatedAt",
}

// AssetRepository defines the data access contract for assets.
type AssetRepository interface {
	Create(ctx context.Context, a *model.Asset) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Asset, error)
	Update(ctx context.Context, a *model.Asset) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SerialTaken(ctx context.Context, serial string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter dto.AssetFilter, now time.Time) ([]model.Asset, int64, error)
	FindAll(ctx context.Context) ([]model.Asset, error)
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Asset, error)
	FindByType(ctx context.Context, t model.AssetType) ([]model.Asset, error)
	FindAvailable(ctx context.Context) ([]model.Asset, error)
	FindExpiring(ctx context.Context, now time.Time, days int) ([]model.Asset, error)
	FindExpired(ctx context.Context, now time.Time) ([]model.Asset, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	CountExpiring(ctx context.Context, now time.Time, days int) (int64, error)
	Stats(ctx context.Context) (*dto.AssetStats, error)
}

type assetRepo struct{ coll *mongo.Collection }

func NewAssetRepository(coll *mongo.Collection) AssetRepository { return &assetRepo{coll: coll} }

func (r *assetRepo) Create(ctx context.Context, a *model.Asset) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *assetRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Asset, error) {
	var a model.Asset
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assetRepo) Update(ctx context.Context, a *model.Asset) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assetRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assetRepo) SerialTaken(ctx context.Context, serial string, exclude primitive.ObjectID) (bool, error) {
	query := bson.M{"serialNumber": serial}
	if !exclude.IsZero() {
		query["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.coll.CountDocuments(ctx, query)
	return n > 0, err
}

func (r *assetRepo) List(ctx context.Context, filter dto.AssetFilter, now time.Time) ([]model.Asset, int64, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.AssignedTo != "" {
		uid, err := primitive.ObjectIDFromHex(filter.AssignedTo)
		if err != nil {
			return nil, 0, nil // no asset can match a malformed id
		}
		query["assignedTo"] = uid
	}

	// Classification buckets mirror model.Asset.Classify: the expired check
	// wins, then the purchase date splits upcoming from ongoing.
	switch model.Classification(filter.Classification) {
	case model.ClassificationExpired:
		query["expiryDate"] = bson.M{"$lt": now}
	case model.ClassificationUpcoming:
		query["purchaseDate"] = bson.M{"$gt": now}
		query["$nor"] = bson.A{bson.M{"expiryDate": bson.M{"$lt": now}}}
	case model.ClassificationOngoing:
		query["purchaseDate"] = bson.M{"$lte": now}
		query["$nor"] = bson.A{bson.M{"expiryDate": bson.M{"$lt": now}}}
	}

	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"serialNumber": re},
			bson.M{"vendor": re},
		}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sortSpec(assetSortFields, filter.SortBy, "createdAt", filter.SortOrder)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var assets []model.Asset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *assetRepo) FindAll(ctx context.Context) ([]model.Asset, error) {
	return r.findAll(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *assetRepo) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (r *assetRepo) FindByType(ctx context.Context, t model.AssetType) ([]model.Asset, error) {
	return r.findAll(ctx, bson.M{"type": t}, nil)
}

func (r *assetRepo) FindAvailable(ctx context.Context) ([]model.Asset, error) {
	return r.findAll(ctx, bson.M{"status": model.AssetStatusAvailable}, nil)
}

// FindExpiring returns all assets whose expiry falls within [now, now+days],
// deliberately including assigned ones — an assigned asset expiring is still
// actionable.
func (r *assetRepo) FindExpiring(ctx context.Context, now time.Time, days int) ([]model.Asset, error) {
	return r.findAll(ctx, expiringQuery(now, days),
		options.Find().SetSort(bson.D{{Key: "expiryDate", Value: 1}}))
}

// FindExpired returns assets whose expiry date passed but whose stored
// status has not been swept yet.
func (r *assetRepo) FindExpired(ctx context.Context, now time.Time) ([]model.Asset, error) {
	return r.findAll(ctx, expiredQuery(now), nil)
}

// SweepExpired bulk-sets status=expired on everything FindExpired matches.
// Idempotent: a second run matches nothing.
func (r *assetRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx, expiredQuery(now), bson.M{
		"$set": bson.M{"status": model.AssetStatusExpired, "updatedAt": now},
	})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (r *assetRepo) CountExpiring(ctx context.Context, now time.Time, days int) (int64, error) {
	return r.coll.CountDocuments(ctx, expiringQuery(now, days))
}

func (r *assetRepo) Stats(ctx context.Context) (*dto.AssetStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalAssets": bson.M{"$sum": 1},
			"availableAssets": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", model.AssetStatusAvailable}}, 1, 0},
			}},
			"assignedAssets": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", model.AssetStatusAssigned}}, 1, 0},
			}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []dto.AssetStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	stats := &dto.AssetStats{}
	if len(results) > 0 {
		*stats = results[0]
	}
	return stats, nil
}

func (r *assetRepo) findAll(ctx context.Context, query bson.M, opts *options.FindOptions) ([]model.Asset, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.coll.Find(ctx, query, opts)
	} else {
		cursor, err = r.coll.Find(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	var assets []model.Asset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func expiringQuery(now time.Time, days int) bson.M {
	return bson.M{"expiryDate": bson.M{
		"$gte": now,
		"$lte": now.AddDate(0, 0, days),
	}}
}

func expiredQuery(now time.Time) bson.M {
	return bson.M{
		"expiryDate": bson.M{"$lt": now},
		"status":     bson.M{"$ne": model.AssetStatusExpired},
	}
}
