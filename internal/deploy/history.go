package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogdeck/admin/internal/database"
)

// Record is the Mongo representation of one deploy run.
type Record struct {
	RunID      string    `bson:"runId" json:"runId"`
	Command    string    `bson:"command" json:"command"`
	Message    string    `bson:"message" json:"message"`
	Status     string    `bson:"status" json:"status"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	Stdout     string    `bson:"stdout" json:"stdout"`
	Stderr     string    `bson:"stderr" json:"stderr"`
	StartedAt  time.Time `bson:"startedAt" json:"startedAt"`
	FinishedAt time.Time `bson:"finishedAt" json:"finishedAt"`
}

// History stores deploy runs.
type History interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, runID string) (*Record, error)
}

type NopHistory struct{}

func (NopHistory) Save(context.Context, *Record) error           { return nil }
func (NopHistory) Load(context.Context, string) (*Record, error) { return nil, nil }

// MongoHistory keeps runs in the deploy_runs collection. Each call opens its
// own connection; deploys are rare.
type MongoHistory struct {
	URI      string
	Database string
}

// Save upserts rec. If URI is empty the call is a no-op.
func (h MongoHistory) Save(ctx context.Context, rec *Record) error {
	if h.URI == "" {
		return nil
	}
	client, err := database.ConnectMongo(ctx, h.URI, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	col := client.Database(h.Database).Collection("deploy_runs")
	opts := options.Update().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, bson.M{"runId": rec.RunID}, bson.M{"$set": rec}, opts); err != nil {
		return fmt.Errorf("save deploy run: %w", err)
	}
	return nil
}

// Load fetches a run by id. Returns nil when not found or URI is empty.
func (h MongoHistory) Load(ctx context.Context, runID string) (*Record, error) {
	if h.URI == "" {
		return nil, nil
	}
	client, err := database.ConnectMongo(ctx, h.URI, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	var rec Record
	err = client.Database(h.Database).Collection("deploy_runs").FindOne(ctx, bson.M{"runId": runID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
