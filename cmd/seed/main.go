package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"donorlink/internal/config"
	"donorlink/internal/logger"
	"donorlink/internal/model"
	"donorlink/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	reset := flag.Bool("reset", false, "drop existing blood requests before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Error("Failed to connect to MongoDB", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)

	if *reset {
		if _, err := db.Collection(repository.RequestCollection).DeleteMany(ctx, bson.M{}); err != nil {
			log.Error("Failed to clear requests", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}

	if err := ensureIndexes(ctx, db); err != nil {
		log.Error("Failed to create indexes", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	repo := repository.NewRequestRepo(db)
	inserted := 0
	for _, req := range sampleRequests() {
		existing, err := repo.GetByID(ctx, req.ID)
		if err != nil {
			log.Error("Failed to look up request", map[string]interface{}{"id": req.ID, "error": err.Error()})
			os.Exit(1)
		}
		if existing != nil {
			continue
		}
		if err := repo.Create(ctx, req); err != nil {
			log.Error("Failed to insert request", map[string]interface{}{"id": req.ID, "error": err.Error()})
			os.Exit(1)
		}
		inserted++
	}

	log.Info("Seeded blood requests", map[string]interface{}{"inserted": inserted})
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.RequestCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(repository.QualificationCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "donorId", Value: 1}}},
	})
	return err
}

func sampleRequests() []*model.BloodRequest {
	at := func(day, hour, min int) time.Time {
		return time.Date(2025, time.March, day, hour, min, 0, 0, time.UTC)
	}
	return []*model.BloodRequest{
		{
			ID:            "req1",
			FullName:      "John Smith",
			BloodType:     "O+",
			ContactNumber: "+1 (555) 123-4567",
			HospitalName:  "Ruby Hall Clinic",
			Reason:        "surgery",
			UrgencyLevel:  model.UrgencyWithin24Hours,
			Address:       "40 Sassoon Road, Pune, Maharashtra, India",
			Status:        model.RequestPending,
			Location:      model.Location{Lat: 18.5308, Lng: 73.8475},
			RequesterID:   "user123",
			CreatedAt:     at(6, 10, 30),
		},
		{
			ID:            "req2",
			FullName:      "Sarah Johnson",
			BloodType:     "A-",
			ContactNumber: "+1 (555) 987-6543",
			HospitalName:  "Jehangir Hospital",
			Reason:        "accident",
			UrgencyLevel:  model.UrgencyImmediate,
			Address:       "32 Sassoon Road, Pune, Maharashtra, India",
			Status:        model.RequestPending,
			Location:      model.Location{Lat: 18.5193, Lng: 73.8567},
			RequesterID:   "user456",
			CreatedAt:     at(7, 8, 15),
		},
		{
			ID:            "req3",
			FullName:      "Robert Williams",
			BloodType:     "B+",
			ContactNumber: "+1 (555) 234-5678",
			HospitalName:  "Aditya Birla Memorial Hospital",
			Reason:        "chronic condition",
			UrgencyLevel:  model.UrgencyWithin12Hours,
			Address:       "Aditya Birla Hospital Road, Thergaon, Pune, Maharashtra, India",
			Status:        model.RequestAccepted,
			Location:      model.Location{Lat: 18.6210, Lng: 73.7868},
			RequesterID:   "user789",
			DonorID:       "user001",
			CreatedAt:     at(6, 15, 45),
		},
		{
			ID:            "req4",
			FullName:      "Maria Garcia",
			BloodType:     "AB+",
			ContactNumber: "+1 (555) 345-6789",
			HospitalName:  "Sahyadri Hospital",
			Reason:        "childbirth",
			UrgencyLevel:  model.UrgencyWithin24Hours,
			Address:       "Plot No. 30-C, Karve Road, Pune, Maharashtra, India",
			Status:        model.RequestPending,
			Location:      model.Location{Lat: 18.5073, Lng: 73.8289},
			RequesterID:   "user234",
			CreatedAt:     at(6, 20, 10),
		},
		{
			ID:            "req5",
			FullName:      "David Brown",
			BloodType:     "O-",
			ContactNumber: "+1 (555) 456-7890",
			HospitalName:  "KEM Hospital",
			Reason:        "emergency",
			UrgencyLevel:  model.UrgencyImmediate,
			Address:       "489, Rasta Peth, Pune, Maharashtra, India",
			Status:        model.RequestPending,
			Location:      model.Location{Lat: 18.5233, Lng: 73.8717},
			RequesterID:   "user567",
			CreatedAt:     at(7, 7, 30),
		},
	}
}
