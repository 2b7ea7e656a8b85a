package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionsCollection = "sessions"
	recordsCollection  = "node_execution_records"
	promptsCollection  = "prompt_definitions"
	apiCallsCollection = "api_call_definitions"
)

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// MongoStore implements the session, record and definition stores on a single
// MongoDB database.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Client exposes the underlying connection for collaborators sharing the
// same cluster, such as the vector searcher.
func (s *MongoStore) Client() *mongo.Client {
	return s.client
}

func (s *MongoStore) CreateSession(ctx context.Context, session domain.Session) error {
	_, err := s.database.Collection(sessionsCollection).InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	var session domain.Session

	err := s.database.Collection(sessionsCollection).
		FindOne(ctx, bson.M{"_id": sessionID}).
		Decode(&session)
	if err == mongo.ErrNoDocuments {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (s *MongoStore) UpdateSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus, errMsg string) error {
	now := time.Now()

	update := bson.M{"status": status}

	switch status {
	case domain.SessionStatusRunning:
		update["started_at"] = now
	case domain.SessionStatusCompleted, domain.SessionStatusFailed, domain.SessionStatusCancelled:
		update["completed_at"] = now
	}

	if errMsg != "" {
		update["error"] = errMsg
	}

	result, err := s.database.Collection(sessionsCollection).
		UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (s *MongoStore) RequestCancel(ctx context.Context, sessionID string) error {
	result, err := s.database.Collection(sessionsCollection).
		UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{"$set": bson.M{"cancel_requested": true}})
	if err != nil {
		return fmt.Errorf("failed to request cancel: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (s *MongoStore) IsCancelRequested(ctx context.Context, sessionID string) (bool, error) {
	var doc struct {
		CancelRequested bool `bson:"cancel_requested"`
	}

	err := s.database.Collection(sessionsCollection).
		FindOne(ctx, bson.M{"_id": sessionID}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, domain.ErrSessionNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}

	return doc.CancelRequested, nil
}

func (s *MongoStore) AppendRecord(ctx context.Context, record domain.NodeExecutionRecord) error {
	_, err := s.database.Collection(recordsCollection).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}

	return nil
}

func (s *MongoStore) UpdateRecord(ctx context.Context, record domain.NodeExecutionRecord) error {
	_, err := s.database.Collection(recordsCollection).
		ReplaceOne(ctx, bson.M{"_id": record.ID}, record)
	if err != nil {
		return fmt.Errorf("failed to update execution record: %w", err)
	}

	return nil
}

func (s *MongoStore) ListRecords(ctx context.Context, sessionID string) ([]domain.NodeExecutionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}})

	cursor, err := s.database.Collection(recordsCollection).
		Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.NodeExecutionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode execution records: %w", err)
	}

	return records, nil
}

func (s *MongoStore) GetPrompt(ctx context.Context, promptID string) (domain.PromptDefinition, error) {
	var prompt domain.PromptDefinition

	err := s.database.Collection(promptsCollection).
		FindOne(ctx, bson.M{"_id": promptID}).
		Decode(&prompt)
	if err == mongo.ErrNoDocuments {
		return domain.PromptDefinition{}, domain.ErrPromptNotFound
	}
	if err != nil {
		return domain.PromptDefinition{}, fmt.Errorf("failed to get prompt definition: %w", err)
	}

	return prompt, nil
}

func (s *MongoStore) GetAPICall(ctx context.Context, apiCallID string) (domain.APICallDefinition, error) {
	var apiCall domain.APICallDefinition

	err := s.database.Collection(apiCallsCollection).
		FindOne(ctx, bson.M{"_id": apiCallID}).
		Decode(&apiCall)
	if err == mongo.ErrNoDocuments {
		return domain.APICallDefinition{}, domain.ErrAPICallNotFound
	}
	if err != nil {
		return domain.APICallDefinition{}, fmt.Errorf("failed to get api call definition: %w", err)
	}

	return apiCall, nil
}
