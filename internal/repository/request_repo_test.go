package repository

import (
	"context"
	"testing"
	"time"

	"donorlink/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func requestDoc(id, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "fullName", Value: "John Smith"},
		{Key: "bloodType", Value: "O+"},
		{Key: "hospitalName", Value: "Ruby Hall Clinic"},
		{Key: "urgencyLevel", Value: "within24Hours"},
		{Key: "status", Value: status},
		{Key: "location", Value: bson.D{{Key: "lat", Value: 18.5314}, {Key: "lng", Value: 73.8446}}},
		{Key: "createdAt", Value: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func TestRequestRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "donorlink." + RequestCollection

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, requestDoc("req1", "pending")))

		req, err := repo.GetByID(context.Background(), "req1")
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, "req1", req.ID)
		assert.Equal(t, "O+", req.BloodType)
		assert.Equal(t, model.RequestPending, req.Status)
		assert.Equal(t, model.UrgencyWithin24Hours, req.UrgencyLevel)
		assert.InDelta(t, 73.8446, req.Location.Lng, 1e-9)
	})

	mt.Run("get missing returns nil", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		req, err := repo.GetByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, req)
	})

	mt.Run("create fills defaults", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		req := &model.BloodRequest{FullName: "Jane Doe", BloodType: "A-"}
		require.NoError(t, repo.Create(context.Background(), req))
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, model.RequestPending, req.Status)
		assert.False(t, req.CreatedAt.IsZero())
	})

	mt.Run("list open", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, requestDoc("req1", "pending"))
		second := mtest.CreateCursorResponse(0, ns, mtest.NextBatch, requestDoc("req3", "accepted"))
		mt.AddMockResponses(first, second)

		reqs, err := repo.ListOpen(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "req3", reqs[1].ID)
		assert.Equal(t, model.RequestAccepted, reqs[1].Status)
	})

	mt.Run("accept pending", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		assert.NoError(t, repo.Accept(context.Background(), "req1", "donor1", "key-1"))
	})

	mt.Run("accept held by another donor", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		err := repo.Accept(context.Background(), "req1", "donor2", "key-2")
		assert.ErrorIs(t, err, ErrConflict)
	})

	mt.Run("accept missing request", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		err := repo.Accept(context.Background(), "gone", "donor1", "key-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("accept surfaces driver errors", func(mt *mtest.T) {
		repo := NewRequestRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		err := repo.Accept(context.Background(), "req1", "donor1", "key-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConflict)
	})
}
