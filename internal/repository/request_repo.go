package repository

import (
	"context"
	"time"

	"donorlink/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RequestCollection = "bloodRequests"

type RequestRepo interface {
	Create(ctx context.Context, req *model.BloodRequest) error
	GetByID(ctx context.Context, id string) (*model.BloodRequest, error)
	ListOpen(ctx context.Context, limit int64) ([]*model.BloodRequest, error)

	// Accept marks a pending request accepted by donorID. Repeating the call
	// with the same key is a no-op; any other accepted request is ErrConflict.
	Accept(ctx context.Context, id, donorID, key string) error
}

type requestRepo struct {
	collection *mongo.Collection
}

func NewRequestRepo(db *mongo.Database) RequestRepo {
	return &requestRepo{
		collection: db.Collection(RequestCollection),
	}
}

func (r *requestRepo) Create(ctx context.Context, req *model.BloodRequest) error {
	if req.ID == "" {
		req.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = model.RequestPending
	}

	_, err := r.collection.InsertOne(ctx, req)
	return err
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.BloodRequest, error) {
	var req model.BloodRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Request not found
		}
		return nil, err
	}

	return &req, nil
}

func (r *requestRepo) ListOpen(ctx context.Context, limit int64) ([]*model.BloodRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	filter := bson.M{"status": bson.M{"$in": bson.A{model.RequestPending, model.RequestAccepted}}}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []*model.BloodRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepo) Accept(ctx context.Context, id, donorID, key string) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"status": model.RequestPending},
			bson.M{"status": model.RequestAccepted, "acceptKey": key},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":    model.RequestAccepted,
		"donorId":   donorID,
		"acceptKey": key,
		"updatedAt": time.Now().UTC(),
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the request is gone or someone else holds it.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
