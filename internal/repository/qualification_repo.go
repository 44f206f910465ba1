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

const QualificationCollection = "donorQualifications"

type QualificationRepo interface {
	Create(ctx context.Context, rec *model.QualificationRecord) error
	GetByID(ctx context.Context, id string) (*model.QualificationRecord, error)
	ListByRequest(ctx context.Context, requestID string) ([]*model.QualificationRecord, error)

	// Complete writes the terminal outcome. It applies only to a pending
	// record or one already completed with the same key.
	Complete(ctx context.Context, id string, rec *model.QualificationRecord) error
}

type qualificationRepo struct {
	collection *mongo.Collection
}

func NewQualificationRepo(db *mongo.Database) QualificationRepo {
	return &qualificationRepo{
		collection: db.Collection(QualificationCollection),
	}
}

func (r *qualificationRepo) Create(ctx context.Context, rec *model.QualificationRecord) error {
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = model.QualificationPending
	}

	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *qualificationRepo) GetByID(ctx context.Context, id string) (*model.QualificationRecord, error) {
	var rec model.QualificationRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Record not found
		}
		return nil, err
	}

	return &rec, nil
}

func (r *qualificationRepo) ListByRequest(ctx context.Context, requestID string) ([]*model.QualificationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"requestId": requestID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*model.QualificationRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *qualificationRepo) Complete(ctx context.Context, id string, rec *model.QualificationRecord) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"status": model.QualificationPending},
			bson.M{"idempotencyKey": rec.IdempotencyKey},
		},
	}
	set := bson.M{
		"status":         rec.Status,
		"responses":      rec.Responses,
		"idempotencyKey": rec.IdempotencyKey,
		"updatedAt":      time.Now().UTC(),
	}
	if rec.Reason != "" {
		set["reason"] = rec.Reason
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
