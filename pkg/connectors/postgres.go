// Package connectors holds the durable implementations of the engine's
// collaborator contracts: relational and warehouse queries, text completion,
// generic HTTP calls and vector search.
package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQueryService runs read queries against the relational store and
// returns them in the engine's tabular shape, capped at maxRows.
type PostgresQueryService struct {
	pool    *pgxpool.Pool
	maxRows int
}

func NewPostgresQueryService(ctx context.Context, uri string, maxRows int) (*PostgresQueryService, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresQueryService{pool: pool, maxRows: maxRows}, nil
}

func (s *PostgresQueryService) Query(ctx context.Context, query string) (domain.QueryResult, error) {
	startedAt := time.Now()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return domain.QueryResult{}, err
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()
	columns := make([]domain.ColumnSchema, len(descriptions))

	for i, description := range descriptions {
		columns[i] = domain.ColumnSchema{
			Name: description.Name,
			Type: fmt.Sprintf("oid:%d", description.DataTypeOID),
		}
	}

	result := domain.QueryResult{Columns: columns}

	for rows.Next() {
		if len(result.Rows) >= s.maxRows {
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return domain.QueryResult{}, err
		}

		row := make(map[string]any, len(values))

		for i, value := range values {
			row[descriptions[i].Name] = value
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, err
	}

	result.ExecutionTime = time.Since(startedAt)

	return result, nil
}

func (s *PostgresQueryService) Close() {
	s.pool.Close()
}
