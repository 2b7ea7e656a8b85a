package connectors

import (
	"context"
	"fmt"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoVectorSearcher implements document search for rag nodes on top of a
// MongoDB Atlas search index. The query text is matched against the indexed
// content field and results come back score-ordered.
type MongoVectorSearcher struct {
	collection *mongo.Collection
	indexName  string
}

type vectorDocument struct {
	ID       string         `bson:"_id"`
	Content  string         `bson:"content"`
	Metadata map[string]any `bson:"metadata,omitempty"`
	Score    float64        `bson:"score"`
}

func NewMongoVectorSearcher(client *mongo.Client, database, collection, indexName string) *MongoVectorSearcher {
	if indexName == "" {
		indexName = "default"
	}

	return &MongoVectorSearcher{
		collection: client.Database(database).Collection(collection),
		indexName:  indexName,
	}
}

func (s *MongoVectorSearcher) Search(ctx context.Context, query string, limit int) (domain.SearchResult, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$search", Value: bson.M{
			"index": s.indexName,
			"text": bson.M{
				"query": query,
				"path":  "content",
			},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$meta": "searchScore"},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var result domain.SearchResult

	for cursor.Next(ctx) {
		var doc vectorDocument
		if err := cursor.Decode(&doc); err != nil {
			return domain.SearchResult{}, fmt.Errorf("failed to decode search document: %w", err)
		}

		result.Documents = append(result.Documents, domain.SearchDocument{
			ID:       doc.ID,
			Content:  doc.Content,
			Score:    doc.Score,
			Metadata: doc.Metadata,
		})
	}

	if err := cursor.Err(); err != nil {
		return domain.SearchResult{}, err
	}

	return result, nil
}
