package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jornada/internal/config"
	"jornada/internal/model"
	"jornada/internal/repository"
)

// Seeds a few closed demo sessions so the local database is not empty.
// Codes are single-use, so seeded codes cannot be used to start new shifts.
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewSessionRepo(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	now := time.Now().UTC()
	durations := map[string]time.Duration{
		"DEMO001": 8*time.Hour + 12*time.Minute,
		"DEMO002": 7*time.Hour + 45*time.Minute,
		"DEMO003": 4 * time.Hour,
	}

	for code, d := range durations {
		start := now.Add(-24*time.Hour - d)
		end := start.Add(d)
		totalMs := d.Milliseconds()

		session := &model.WorkSession{
			ID:        uuid.New().String(),
			Code:      code,
			StartTime: start,
			EndTime:   &end,
			TotalMs:   &totalMs,
		}

		if err := repo.Create(ctx, session); err != nil {
			if err == repository.ErrDuplicateCode {
				fmt.Printf("Skipped %s (already seeded)\n", code)
				continue
			}
			log.Fatalf("Failed to seed session %s: %v", code, err)
		}
		fmt.Printf("Seeded closed session %s (%s)\n", code, d)
	}

	fmt.Println("Done")
}
