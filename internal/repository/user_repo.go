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

// ErrNotFound is returned by all repositories when a document is missing.
// Services translate it into the API error taxonomy.
var ErrNotFound = errors.New("document not found")

// userSortFields whitelists the sortBy values accepted for user listings.
var userSortFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"department": "department",
	"createdAt":  "createdAt",
	"updatedAt":  "updatedAt",
}

// UserRepository defines the data access contract for users.
// Services depend on this interface, not on the concrete Mongo
// implementation, enabling clean unit testing via stubs.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter dto.UserFilter) ([]model.User, int64, error)
	Update(ctx context.Context, u *model.User) error
	FindByRole(ctx context.Context, role model.Role) ([]model.User, error)
	FindByDepartment(ctx context.Context, department string) ([]model.User, error)
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error)
	ActiveAdmins(ctx context.Context) ([]model.User, error)
	Stats(ctx context.Context) (*dto.UserStats, error)
}

type userRepo struct{ coll *mongo.Collection }

func NewUserRepository(coll *mongo.Collection) UserRepository { return &userRepo{coll: coll} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, exclude primitive.ObjectID) (bool, error) {
	query := bson.M{"email": email}
	if !exclude.IsZero() {
		query["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.coll.CountDocuments(ctx, query)
	return n > 0, err
}

func (r *userRepo) List(ctx context.Context, filter dto.UserFilter) ([]model.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if filter.IsActive != "" {
		query["isActive"] = filter.IsActive == "true"
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"department": re},
		}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sortSpec(userSortFields, filter.SortBy, "createdAt", filter.SortOrder)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) FindByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return r.findAll(ctx, bson.M{"role": role, "isActive": true})
}

func (r *userRepo) FindByDepartment(ctx context.Context, department string) ([]model.User, error) {
	return r.findAll(ctx, bson.M{"department": department, "isActive": true})
}

func (r *userRepo) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *userRepo) ActiveAdmins(ctx context.Context) ([]model.User, error) {
	return r.findAll(ctx, bson.M{"role": model.RoleAdmin, "isActive": true})
}

func (r *userRepo) findAll(ctx context.Context, query bson.M) ([]model.User, error) {
	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Stats(ctx context.Context) (*dto.UserStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalUsers": bson.M{"$sum": 1},
			"activeUsers": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$isActive", true}}, 1, 0},
			}},
			"inactiveUsers": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$isActive", false}}, 1, 0},
			}},
			"adminUsers": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$role", model.RoleAdmin}}, 1, 0},
			}},
			"hrUsers": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$role", model.RoleHR}}, 1, 0},
			}},
			"employeeUsers": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$role", model.RoleEmployee}}, 1, 0},
			}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []dto.UserStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	stats := &dto.UserStats{}
	if len(results) > 0 {
		*stats = results[0]
	}

	deptPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$department",
			"count": bson.M{"$sum": 1},
			"activeCount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$isActive", true}}, 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	deptCursor, err := r.coll.Aggregate(ctx, deptPipeline)
	if err != nil {
		return nil, err
	}
	var deptStats []dto.DepartmentStat
	if err := deptCursor.All(ctx, &deptStats); err != nil {
		return nil, err
	}
	stats.DepartmentStats = deptStats
	return stats, nil
}

// sortSpec resolves a requested sortBy against the entity's whitelist,
// falling back to the default field for unknown values.
func sortSpec(allowed map[string]string, sortBy, defaultField, order string) bson.D {
	field, ok := allowed[sortBy]
	if !ok {
		field = defaultField
	}
	dir := -1
	if order == "asc" {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}}
}
