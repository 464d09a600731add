package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biodata-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	biodataCollection = "biodata"
	usersCollection   = "users"
)

type MongoBiodataStore struct {
	col *mongo.Collection
}

func NewMongoBiodataStore(db *mongo.Database) *MongoBiodataStore {
	return &MongoBiodataStore{col: db.Collection(biodataCollection)}
}

func (s *MongoBiodataStore) Insert(ctx context.Context, b *models.Biodata) error {
	if _, err := s.col.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrBiodataExists
		}
		return fmt.Errorf("failed to insert biodata: %w", err)
	}
	return nil
}

func (s *MongoBiodataStore) InsertMany(ctx context.Context, bs []models.Biodata) error {
	if len(bs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(bs))
	for i := range bs {
		docs = append(docs, bs[i])
	}
	if _, err := s.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert biodata batch: %w", err)
	}
	return nil
}

func (s *MongoBiodataStore) Update(ctx context.Context, id string, patch models.Biodata, unset []string) (*models.Biodata, error) {
	update := bson.M{"$set": patch}
	if len(unset) > 0 {
		fields := bson.M{}
		for _, f := range unset {
			fields[f] = ""
		}
		update["$unset"] = fields
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Biodata
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBiodataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update biodata: %w", err)
	}
	return &out, nil
}

func (s *MongoBiodataStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete biodata: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrBiodataNotFound
	}
	return nil
}

func (s *MongoBiodataStore) GetByID(ctx context.Context, id string) (*models.Biodata, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoBiodataStore) GetByUserID(ctx context.Context, userID string) (*models.Biodata, error) {
	return s.findOne(ctx, bson.M{"userId": userID})
}

func (s *MongoBiodataStore) findOne(ctx context.Context, filter bson.M) (*models.Biodata, error) {
	var b models.Biodata
	err := s.col.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBiodataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch biodata: %w", err)
	}
	return &b, nil
}

func (s *MongoBiodataStore) All(ctx context.Context) ([]models.Biodata, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list biodata: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Biodata
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode biodata: %w", err)
	}
	return out, nil
}

func (s *MongoBiodataStore) Count(ctx context.Context, biodataType string) (int64, error) {
	filter := bson.M{}
	if biodataType != "" {
		filter["biodataType"] = biodataType
	}
	return s.col.CountDocuments(ctx, filter)
}

func (s *MongoBiodataStore) CountTestData(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"isTestData": true})
}

func (s *MongoBiodataStore) DeleteTestData(ctx context.Context) ([]string, error) {
	filter := bson.M{"isTestData": true}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list test data: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode test data ids: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	if _, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("failed to delete test data: %w", err)
	}
	return ids, nil
}

func (s *MongoBiodataStore) Distinct(ctx context.Context, field string, limit int) ([]string, error) {
	values, err := s.col.Distinct(ctx, field, bson.M{field: bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, fmt.Errorf("failed to read distinct %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(usersCollection)}
}

func (s *MongoUserStore) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}

func (s *MongoUserStore) Upsert(ctx context.Context, u models.User) (*models.User, error) {
	set := bson.M{"updatedAt": u.UpdatedAt}
	if u.Name != "" {
		set["name"] = u.Name
	}
	if u.Email != "" {
		set["email"] = u.Email
	}
	if u.PhotoURL != "" {
		set["photoUrl"] = u.PhotoURL
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"createdAt":  u.CreatedAt,
			"favorites":  bson.A{},
			"ignoreList": bson.A{},
		},
	}
	if _, err := s.col.UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.Get(ctx, u.ID)
}

func (s *MongoUserStore) AddToList(ctx context.Context, userID string, list UserList, biodataID string) error {
	return s.updateList(ctx, userID, bson.M{
		"$addToSet": bson.M{string(list): biodataID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *MongoUserStore) RemoveFromList(ctx context.Context, userID string, list UserList, biodataID string) error {
	return s.updateList(ctx, userID, bson.M{
		"$pull": bson.M{string(list): biodataID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *MongoUserStore) updateList(ctx context.Context, userID string, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to update user list: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
